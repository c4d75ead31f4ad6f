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
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/convlstm/ml/initpolicy"
)

const (
	// ParamDecoderFilterSize is the context hyperparameter with the filter size of the decoder convolution.
	// It must be odd. Default is 3.
	ParamDecoderFilterSize = "decoder_filter_size"
)

// DecoderConfig holds the static configuration of a Decoder.
type DecoderConfig struct {
	// Height and Width are informative: Decode accepts any spatial size.
	Height, Width int

	// InputChannels is the sum of the channels of the two decoded feature maps.
	InputChannels int

	// FilterSize of the square convolution kernel. It must be odd.
	FilterSize int

	// OutputChannels of the decoded feature map.
	OutputChannels int

	// DType of the variables. Defaults to dtypes.Float32 if left unset.
	DType dtypes.DType

	// Policy used to initialize the variables. Defaults to initpolicy.Default() if nil.
	Policy *initpolicy.Policy
}

// Decoder projects two feature maps (typically the final hidden and cell states of a ConvLSTM layer)
// to the output space, with one "same" padded convolution over their concatenation. No activation is applied.
type Decoder struct {
	config DecoderConfig
	conv   *convVariables
}

// NewDecoder creates the decoder variables in the current scope of ctx.
func NewDecoder(ctx *context.Context, config DecoderConfig) (*Decoder, error) {
	if err := checkPositive("Height", config.Height, "Width", config.Width,
		"InputChannels", config.InputChannels, "OutputChannels", config.OutputChannels); err != nil {
		return nil, errors.WithMessage(err, "convlstm.NewDecoder")
	}
	config.DType = defaultDType(config.DType)
	conv, err := newConvVariables(ctx, policyOrDefault(config.Policy), config.DType,
		config.InputChannels, config.FilterSize, config.OutputChannels)
	if err != nil {
		return nil, errors.WithMessage(err, "convlstm.NewDecoder")
	}
	return &Decoder{config: config, conv: conv}, nil
}

// Config returns the configuration of the decoder, with defaults filled in.
func (d *Decoder) Config() DecoderConfig { return d.config }

// VisitParams implements initpolicy.Visitable.
func (d *Decoder) VisitParams(fn func(kind initpolicy.ComponentKind, role initpolicy.ParamRole, v *context.Variable)) {
	d.conv.visit(fn)
}

// Decode concatenates a and b on the channels axis and applies the decoder convolution.
//
// a and b are shaped `[batch, channels_a, height, width]` and `[batch, channels_b, height, width]`, with
// channels_a + channels_b == InputChannels. The output is shaped `[batch, OutputChannels, height, width]`.
func (d *Decoder) Decode(a, b *graph.Node) *graph.Node {
	cfg := d.config
	if a == nil || b == nil || a.Rank() != 4 || b.Rank() != 4 {
		exceptions.Panicf("convlstm.Decoder.Decode: inputs must be non-nil and rank-4 [batch, channels, height, width]")
	}
	if a.Shape().Dimensions[1]+b.Shape().Dimensions[1] != cfg.InputChannels {
		exceptions.Panicf("convlstm.Decoder.Decode: channels of inputs (%s and %s) must add up to %d",
			a.Shape(), b.Shape(), cfg.InputChannels)
	}
	combined := graph.Concatenate([]*graph.Node{a, b}, 1)
	checkFeatureMap("convlstm.Decoder combined inputs", combined, cfg.InputChannels)
	return d.conv.apply(combined)
}
