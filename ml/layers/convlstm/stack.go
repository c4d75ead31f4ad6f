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
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/convlstm/ml/initpolicy"
)

// Config of a Stack of ConvLSTM cells.
type Config struct {
	// Height and Width of the states created by InitHidden.
	Height, Width int

	// InputChannels of the input sequence, consumed by the first layer.
	// Layers above the first take NumFeatures channels.
	InputChannels int

	// FilterSize shared by all layers. It must be odd.
	FilterSize int

	// NumFeatures of the hidden and cell states, shared by all layers.
	NumFeatures int

	// NumLayers is the number of stacked cells, it must be >= 1.
	NumLayers int

	// DType of the variables and states. Defaults to dtypes.Float32 if left unset.
	DType dtypes.DType

	// Policy used to initialize the variables. Defaults to initpolicy.Default() if nil.
	Policy *initpolicy.Policy
}

// ConfigFromContext returns the configuration for the given frame size and number of input channels,
// with the remaining values taken from the context hyperparameters ParamNumFeatures, ParamFilterSize and
// ParamNumLayers.
func ConfigFromContext(ctx *context.Context, height, width, inputChannels int) Config {
	policy := initpolicy.FromContext(ctx)
	return Config{
		Height:        height,
		Width:         width,
		InputChannels: inputChannels,
		FilterSize:    context.GetParamOr(ctx, ParamFilterSize, 5),
		NumFeatures:   context.GetParamOr(ctx, ParamNumFeatures, 10),
		NumLayers:     context.GetParamOr(ctx, ParamNumLayers, 2),
		Policy:        &policy,
	}
}

// cellConfig returns the configuration of the cell of the given layer.
func (c Config) cellConfig(layerIdx int) CellConfig {
	inputChannels := c.InputChannels
	if layerIdx > 0 {
		inputChannels = c.NumFeatures
	}
	return CellConfig{
		Height:        c.Height,
		Width:         c.Width,
		InputChannels: inputChannels,
		FilterSize:    c.FilterSize,
		NumFeatures:   c.NumFeatures,
		DType:         c.DType,
		Policy:        c.Policy,
	}
}

// Stack of ConvLSTM cells. Layer 0 consumes the input sequence, and each layer above consumes the
// sequence of hidden states of the layer below.
type Stack struct {
	config Config
	cells  []*Cell
}

// NewStack creates config.NumLayers cells, each in its own sub-scope of ctx ("000_cell", "001_cell", ...).
//
// It returns an error if the configuration is invalid.
func NewStack(ctx *context.Context, config Config) (*Stack, error) {
	if config.NumLayers <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "convlstm.NewStack: NumLayers must be > 0, got %d", config.NumLayers)
	}
	config.DType = defaultDType(config.DType)
	s := &Stack{config: config, cells: make([]*Cell, config.NumLayers)}
	for layerIdx := range config.NumLayers {
		cell, err := NewCell(ctx.In(fmt.Sprintf("%03d_cell", layerIdx)), config.cellConfig(layerIdx))
		if err != nil {
			return nil, errors.WithMessagef(err, "convlstm.NewStack: layer #%d", layerIdx)
		}
		s.cells[layerIdx] = cell
	}
	klog.V(2).Infof("convlstm.NewStack: %d layers, %d features, filter size %d, frames %dx%d",
		config.NumLayers, config.NumFeatures, config.FilterSize, config.Height, config.Width)
	return s, nil
}

// Config returns the configuration of the stack, with defaults filled in.
func (s *Stack) Config() Config { return s.config }

// NumLayers returns the number of stacked cells.
func (s *Stack) NumLayers() int { return len(s.cells) }

// Cells returns the cells, ordered by depth: index 0 is the layer closest to the input.
func (s *Stack) Cells() []*Cell { return s.cells }

// VisitParams implements initpolicy.Visitable.
func (s *Stack) VisitParams(fn func(kind initpolicy.ComponentKind, role initpolicy.ParamRole, v *context.Variable)) {
	for _, cell := range s.cells {
		cell.VisitParams(fn)
	}
}

// InitHidden returns one all-zero state per layer, in layer order.
func (s *Stack) InitHidden(g *graph.Graph, batchSize int) []State {
	states := make([]State, len(s.cells))
	for layerIdx, cell := range s.cells {
		states[layerIdx] = cell.InitHidden(g, batchSize)
	}
	return states
}

// Forward runs the stack over the whole sequence, shaped `[time, batch, InputChannels, Height, Width]`,
// starting from initialStates (one per layer, see InitHidden).
//
// Each layer processes every time step before the next layer starts: the hidden states of layer i,
// stacked over time, are the input sequence of layer i+1.
//
// It returns the final state of each layer (index = depth) and the sequence of hidden states of the last
// layer, shaped `[time, batch, NumFeatures, Height, Width]`.
//
// It panics if sequence is not rank-5 or if the number of initial states doesn't match the number of layers.
func (s *Stack) Forward(sequence *graph.Node, initialStates []State) (finalStates []State, outputs *graph.Node) {
	if sequence.Rank() != 5 {
		exceptions.Panicf("convlstm.Stack.Forward: sequence must be shaped [time, batch, channels, height, width], got %s",
			sequence.Shape())
	}
	if len(initialStates) != len(s.cells) {
		exceptions.Panicf("convlstm.Stack.Forward: got %d initial states, but the stack has %d layers",
			len(initialStates), len(s.cells))
	}
	seqLen := sequence.Shape().Dimensions[0]
	if seqLen == 0 {
		exceptions.Panicf("convlstm.Stack.Forward: sequence has no time steps: %s", sequence.Shape())
	}
	frameDims := sequence.Shape().Dimensions[1:]

	layerInput := sequence
	finalStates = make([]State, len(s.cells))
	hiddens := make([]*graph.Node, seqLen)
	for layerIdx, cell := range s.cells {
		state := initialStates[layerIdx]
		for t := range seqLen {
			x := graph.Slice(layerInput, graph.AxisRange(t, t+1))
			x = graph.Reshape(x, frameDims...)
			state = cell.Step(x, state)
			hiddens[t] = state.Hidden
		}
		finalStates[layerIdx] = state
		layerInput = graph.Stack(hiddens, 0)
		frameDims = layerInput.Shape().Dimensions[1:]
	}
	outputs = layerInput
	return
}
