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

// Package convlstm implements Convolutional LSTM layers (ConvLSTM), as described in
// "Convolutional LSTM Network: A Machine Learning Approach for Precipitation Nowcasting"
// (https://arxiv.org/abs/1506.04214).
//
// A ConvLSTM replaces the matrix multiplications of the LSTM gates with convolutions, so both the
// hidden and the cell states are feature maps that keep the spatial structure of the input.
//
// The package provides:
//
//   - Cell: one ConvLSTM cell, executing one time step with Cell.Step.
//   - Stack: a fixed number of cells stacked on top of each other, run over a whole sequence with
//     Stack.Forward.
//   - Decoder: a convolutional projection of two internal states (e.g. the final hidden and cell
//     states of a layer) back to the output space.
//
// All feature maps are "channels first", that is shaped `[batch, channels, height, width]`, and sequences
// are "time major", shaped `[time, batch, channels, height, width]`.
//
// Variables are created when the components are constructed (NewCell, NewStack, NewDecoder), in the
// current context scope, and initialized according to an initpolicy.Policy.
package convlstm

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
	timage "github.com/gomlx/gomlx/types/tensors/images"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/convlstm/ml/initpolicy"
)

const (
	// ParamNumFeatures is the context hyperparameter with the number of features (channels) of the hidden
	// and cell states of every layer.
	// Default is 10.
	ParamNumFeatures = "convlstm_num_features"

	// ParamFilterSize is the context hyperparameter with the spatial size of the (square) convolution kernels.
	// It must be odd. Default is 5.
	ParamFilterSize = "convlstm_filter_size"

	// ParamNumLayers is the context hyperparameter with the number of stacked ConvLSTM layers.
	// Default is 2.
	ParamNumLayers = "convlstm_num_layers"
)

var (
	// ErrInvalidConfig is returned (wrapped) when a configuration has non-positive sizes.
	ErrInvalidConfig = errors.New("invalid convlstm configuration")

	// ErrEvenFilterSize is returned (wrapped) when the filter size is even: "same" padding
	// requires an odd filter size.
	ErrEvenFilterSize = errors.New("filter size must be odd")
)

// State of one ConvLSTM layer: Hidden and Cell are both shaped `[batch, numFeatures, height, width]`.
type State struct {
	Hidden, Cell *graph.Node
}

// Padding returns the symmetric padding that preserves the spatial dimensions for a stride-1
// convolution with the given filter size.
//
// It returns an error wrapping ErrEvenFilterSize if filterSize is even, and ErrInvalidConfig if
// it is not positive.
func Padding(filterSize int) (int, error) {
	if filterSize <= 0 {
		return 0, errors.Wrapf(ErrInvalidConfig, "filter size must be positive, got %d", filterSize)
	}
	if filterSize%2 == 0 {
		return 0, errors.Wrapf(ErrEvenFilterSize, "got filter size %d", filterSize)
	}
	return (filterSize - 1) / 2, nil
}

// checkPositive takes pairs of names and values, and returns an error for the first non-positive value.
func checkPositive(namesAndValues ...any) error {
	for ii := 0; ii+1 < len(namesAndValues); ii += 2 {
		if value := namesAndValues[ii+1].(int); value <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s must be > 0, got %d", namesAndValues[ii], value)
		}
	}
	return nil
}

func defaultDType(dtype dtypes.DType) dtypes.DType {
	if dtype == dtypes.InvalidDType {
		return dtypes.Float32
	}
	return dtype
}

func policyOrDefault(policy *initpolicy.Policy) initpolicy.Policy {
	if policy == nil {
		return initpolicy.Default()
	}
	return *policy
}

// convVariables holds the kernel and bias of a "same" padded 2D convolution.
type convVariables struct {
	weights, biases *context.Variable
	padding         int
}

// newConvVariables creates the variables of a convolution from inputChannels to outputChannels, with a
// square kernel of size filterSize.
//
// The kernel is shaped `[inputChannels, filterSize, filterSize, outputChannels]`, the layout used by
// graph.Convolve for channels-first inputs.
func newConvVariables(ctx *context.Context, policy initpolicy.Policy, dtype dtypes.DType,
	inputChannels, filterSize, outputChannels int) (*convVariables, error) {
	padding, err := Padding(filterSize)
	if err != nil {
		return nil, err
	}
	conv := &convVariables{padding: padding}
	conv.weights = ctx.
		WithInitializer(policy.Initializer(ctx, initpolicy.KindConvolution, initpolicy.RoleWeights)).
		VariableWithShape("weights", shapes.Make(dtype, inputChannels, filterSize, filterSize, outputChannels))
	conv.biases = ctx.
		WithInitializer(policy.Initializer(ctx, initpolicy.KindConvolution, initpolicy.RoleBias)).
		VariableWithShape("biases", shapes.Make(dtype, outputChannels))
	return conv, nil
}

// apply the convolution to x, shaped `[batch, inputChannels, height, width]`. The output has the same
// spatial dimensions as x.
func (conv *convVariables) apply(x *graph.Node) *graph.Node {
	g := x.Graph()
	kernel := conv.weights.ValueGraph(g)
	pad := [2]int{conv.padding, conv.padding}
	output := graph.Convolve(x, kernel).
		ChannelsAxis(timage.ChannelsFirst).
		PaddingPerDim([][2]int{pad, pad}).
		StridePerDim(1, 1).
		Done()

	// Broadcast bias on the channels axis.
	bias := conv.biases.ValueGraph(g)
	bias = graph.Reshape(bias, 1, bias.Shape().Dimensions[0], 1, 1)
	return graph.Add(output, bias)
}

func (conv *convVariables) visit(fn func(kind initpolicy.ComponentKind, role initpolicy.ParamRole, v *context.Variable)) {
	fn(initpolicy.KindConvolution, initpolicy.RoleWeights, conv.weights)
	fn(initpolicy.KindConvolution, initpolicy.RoleBias, conv.biases)
}

// checkFeatureMap panics if x is not shaped `[batch, channels, height, width]`, with batch and spatial
// dimensions free.
func checkFeatureMap(name string, x *graph.Node, channels int) {
	if x == nil {
		exceptions.Panicf("%s is nil", name)
	}
	if x.Rank() != 4 || x.Shape().Dimensions[1] != channels {
		exceptions.Panicf("%s must be shaped [batch, channels=%d, height, width], got %s", name, channels, x.Shape())
	}
}
