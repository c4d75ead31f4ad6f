/*
 *	Copyright 2025 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package convlstm

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/convlstm/ml/initpolicy"
)

// CellConfig holds the static configuration of a Cell.
type CellConfig struct {
	// Height and Width of the states created by InitHidden. Step itself accepts any spatial size,
	// as long as x and the state agree.
	Height, Width int

	// InputChannels is the number of channels of the input x.
	InputChannels int

	// FilterSize of the square convolution kernel. It must be odd.
	FilterSize int

	// NumFeatures is the number of channels of the hidden and cell states.
	NumFeatures int

	// DType of the variables and states. Defaults to dtypes.Float32 if left unset.
	DType dtypes.DType

	// Policy used to initialize the variables. Defaults to initpolicy.Default() if nil.
	Policy *initpolicy.Policy
}

// Validate returns an error if any dimension is not positive or if the filter size is even.
func (c CellConfig) Validate() error {
	if err := checkPositive("Height", c.Height, "Width", c.Width, "InputChannels", c.InputChannels,
		"NumFeatures", c.NumFeatures); err != nil {
		return err
	}
	_, err := Padding(c.FilterSize)
	return err
}

// Cell is one ConvLSTM cell.
//
// It owns a single convolution with kernel `[InputChannels+NumFeatures, FilterSize, FilterSize, 4*NumFeatures]`
// and bias `[4*NumFeatures]`, applied to the concatenation of the input and the previous hidden state.
// The output channels are split, in order, into the input, forget, cell and output gates.
//
// The variables are shared by every time step the cell is applied to.
type Cell struct {
	config CellConfig
	conv   *convVariables
}

// NewCell creates a ConvLSTM cell, with its variables created in the current scope of ctx.
//
// It returns an error (wrapping ErrInvalidConfig or ErrEvenFilterSize) if the configuration is invalid.
func NewCell(ctx *context.Context, config CellConfig) (*Cell, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessage(err, "convlstm.NewCell")
	}
	config.DType = defaultDType(config.DType)
	conv, err := newConvVariables(ctx, policyOrDefault(config.Policy), config.DType,
		config.InputChannels+config.NumFeatures, config.FilterSize, 4*config.NumFeatures)
	if err != nil {
		return nil, errors.WithMessage(err, "convlstm.NewCell")
	}
	return &Cell{config: config, conv: conv}, nil
}

// Config returns the configuration of the cell, with defaults filled in.
func (c *Cell) Config() CellConfig { return c.config }

// Kernel returns the convolution kernel in the graph g.
func (c *Cell) Kernel(g *graph.Graph) *graph.Node { return c.conv.weights.ValueGraph(g) }

// Bias returns the convolution bias in the graph g.
func (c *Cell) Bias(g *graph.Graph) *graph.Node { return c.conv.biases.ValueGraph(g) }

// VisitParams implements initpolicy.Visitable.
func (c *Cell) VisitParams(fn func(kind initpolicy.ComponentKind, role initpolicy.ParamRole, v *context.Variable)) {
	c.conv.visit(fn)
}

// Gates are the activated gates of one ConvLSTM step, each shaped `[batch, numFeatures, height, width]`.
// Input, Forget and Output are in (0, 1); Cell (the candidate values) is in (-1, 1).
type Gates struct {
	Input, Forget, Cell, Output *graph.Node
}

// Gates computes the activated gates for input x and the previous state.
//
// It panics if x or the state don't have the shapes expected by the cell.
func (c *Cell) Gates(x *graph.Node, state State) Gates {
	c.checkStep(x, state)
	combined := graph.Concatenate([]*graph.Node{x, state.Hidden}, 1)
	preActivations := c.conv.apply(combined)
	nf := c.config.NumFeatures
	split := func(gateIdx int) *graph.Node {
		return graph.Slice(preActivations, graph.AxisRange(), graph.AxisRange(gateIdx*nf, (gateIdx+1)*nf))
	}
	return Gates{
		Input:  graph.Sigmoid(split(0)),
		Forget: graph.Sigmoid(split(1)),
		Cell:   graph.Tanh(split(2)),
		Output: graph.Sigmoid(split(3)),
	}
}

// Step executes one time step of the cell:
//
//	c_next = forget * c_prev + input * cell
//	h_next = output * tanh(c_next)
//
// x is shaped `[batch, InputChannels, height, width]` and the state `[batch, NumFeatures, height, width]`.
// The returned state has the same shape as the previous state. Step doesn't change the cell or
// its arguments, and it can be called any number of times.
func (c *Cell) Step(x *graph.Node, state State) State {
	gates := c.Gates(x, state)
	cellNext := graph.Add(graph.Mul(gates.Forget, state.Cell), graph.Mul(gates.Input, gates.Cell))
	hiddenNext := graph.Mul(gates.Output, graph.Tanh(cellNext))
	return State{Hidden: hiddenNext, Cell: cellNext}
}

// InitHidden returns an all-zero state for the given batch size.
func (c *Cell) InitHidden(g *graph.Graph, batchSize int) State {
	if batchSize <= 0 {
		exceptions.Panicf("convlstm.Cell.InitHidden: batchSize must be > 0, got %d", batchSize)
	}
	shape := shapes.Make(c.config.DType, batchSize, c.config.NumFeatures, c.config.Height, c.config.Width)
	return State{Hidden: graph.Zeros(g, shape), Cell: graph.Zeros(g, shape)}
}

func (c *Cell) checkStep(x *graph.Node, state State) {
	cfg := c.config
	checkFeatureMap("convlstm.Cell input x", x, cfg.InputChannels)
	checkFeatureMap("convlstm.Cell hidden state", state.Hidden, cfg.NumFeatures)
	checkFeatureMap("convlstm.Cell cell state", state.Cell, cfg.NumFeatures)
	xDims := x.Shape().Dimensions
	for _, s := range []*graph.Node{state.Hidden, state.Cell} {
		dims := s.Shape().Dimensions
		if dims[0] != xDims[0] || dims[2] != xDims[2] || dims[3] != xDims[3] {
			exceptions.Panicf("convlstm.Cell: batch and spatial dimensions of x (%s), hidden state (%s) and cell state (%s) differ",
				x.Shape(), state.Hidden.Shape(), state.Cell.Shape())
		}
	}
	for _, named := range []struct {
		name string
		node *graph.Node
	}{{"x", x}, {"hidden state", state.Hidden}, {"cell state", state.Cell}} {
		if named.node.DType() != cfg.DType {
			exceptions.Panicf("convlstm.Cell: %s has dtype %s, but cell was configured with %s",
				named.name, named.node.DType(), cfg.DType)
		}
	}
}
