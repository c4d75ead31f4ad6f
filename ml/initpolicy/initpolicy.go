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

// Package initpolicy defines how the parameters of the convolutional recurrent models are initialized.
//
// Every component declares its ComponentKind, and
// each of its variables declares its ParamRole. The Policy maps the pair to a context.VariableInitializer:
//
//   - KindConvolution weights: normal distribution with mean 0 and stddev Policy.ConvolutionStddev (0.02).
//   - KindNormalization weights: normal distribution with mean Policy.NormalizationMean (1.0) and
//     stddev Policy.NormalizationStddev (0.02).
//   - Biases of any kind: zero.
//
// The same Policy is used to create variables (see Policy.Initializer) and to re-initialize
// variables that already exist (see Policy.Apply).
package initpolicy

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ComponentKind enumerates the kinds of components whose parameters have a dedicated initialization.
type ComponentKind int

const (
	KindConvolution ComponentKind = iota
	KindNormalization
)

//go:generate go tool enumer -type=ComponentKind -trimprefix=Kind -transform=snake -values -text -output=gen_componentkind_enumer.go initpolicy.go

// ParamRole enumerates the role of a variable within a component.
type ParamRole int

const (
	RoleWeights ParamRole = iota
	RoleBias
)

//go:generate go tool enumer -type=ParamRole -trimprefix=Role -transform=snake -values -text -output=gen_paramrole_enumer.go initpolicy.go

const (
	// ParamConvolutionStddev is the context hyperparameter for the standard deviation of convolution weights.
	// Default is 0.02.
	ParamConvolutionStddev = "init_conv_stddev"

	// ParamNormalizationMean is the context hyperparameter for the mean of normalization weights.
	// Default is 1.0.
	ParamNormalizationMean = "init_norm_mean"

	// ParamNormalizationStddev is the context hyperparameter for the standard deviation of normalization weights.
	// Default is 0.02.
	ParamNormalizationStddev = "init_norm_stddev"
)

// Policy holds the distribution parameters used to initialize each ComponentKind.
type Policy struct {
	ConvolutionStddev   float64
	NormalizationMean   float64
	NormalizationStddev float64
}

// Default returns the default Policy: convolution weights ~ N(0, 0.02), normalization
// weights ~ N(1, 0.02) and zero biases.
func Default() Policy {
	return Policy{
		ConvolutionStddev:   0.02,
		NormalizationMean:   1.0,
		NormalizationStddev: 0.02,
	}
}

// FromContext returns the Default policy, overwritten by any hyperparameters set in the context.
func FromContext(ctx *context.Context) Policy {
	p := Default()
	p.ConvolutionStddev = context.GetParamOr(ctx, ParamConvolutionStddev, p.ConvolutionStddev)
	p.NormalizationMean = context.GetParamOr(ctx, ParamNormalizationMean, p.NormalizationMean)
	p.NormalizationStddev = context.GetParamOr(ctx, ParamNormalizationStddev, p.NormalizationStddev)
	return p
}

// Distribution returns the mean and standard deviation used for the given kind and role.
// A zero stddev means the variable is set to the constant mean.
func (p Policy) Distribution(kind ComponentKind, role ParamRole) (mean, stddev float64) {
	if role == RoleBias {
		return 0, 0
	}
	switch kind {
	case KindConvolution:
		return 0, p.ConvolutionStddev
	case KindNormalization:
		return p.NormalizationMean, p.NormalizationStddev
	default:
		exceptions.Panicf("unknown component kind %s: valid values are %v", kind, ComponentKindValues())
	}
	return
}

// Initializer returns the context.VariableInitializer for the given kind and role.
//
// Random values are drawn from the context random number generator, so they can be made
// deterministic with ctx.RngStateFromSeed.
func (p Policy) Initializer(ctx *context.Context, kind ComponentKind, role ParamRole) context.VariableInitializer {
	mean, stddev := p.Distribution(kind, role)
	return func(g *Graph, shape shapes.Shape) *Node {
		if !shape.DType.IsFloat() {
			return Zeros(g, shape)
		}
		if stddev == 0 {
			return AddScalar(Zeros(g, shape), mean)
		}
		values := ctx.RandomNormal(g, shape)
		return AddScalar(MulScalar(values, stddev), mean)
	}
}

// Visitable is implemented by any component that owns variables subject to the initialization policy.
type Visitable interface {
	// VisitParams calls fn for each variable owned by the component, along with its kind and role.
	VisitParams(fn func(kind ComponentKind, role ParamRole, v *context.Variable))
}

type target struct {
	kind ComponentKind
	role ParamRole
	v    *context.Variable
}

// Apply re-initializes, in place, every variable of the given modules according to the policy.
//
// It executes one graph that generates all new values, using the context random number generator.
func (p Policy) Apply(backend backends.Backend, ctx *context.Context, modules ...Visitable) error {
	var targets []target
	for _, module := range modules {
		module.VisitParams(func(kind ComponentKind, role ParamRole, v *context.Variable) {
			targets = append(targets, target{kind, role, v})
		})
	}
	if len(targets) == 0 {
		return nil
	}
	err := exceptions.TryCatch[error](func() {
		values := context.ExecOnceN(backend, ctx, func(ctx *context.Context, g *Graph) []*Node {
			outputs := make([]*Node, len(targets))
			for ii, t := range targets {
				outputs[ii] = p.Initializer(ctx, t.kind, t.role)(g, t.v.Shape())
			}
			return outputs
		})
		for ii, t := range targets {
			t.v.SetValue(values[ii])
		}
	})
	if err != nil {
		return errors.WithMessage(err, "failed to apply initialization policy")
	}
	klog.V(1).Infof("initialization policy applied to %d variables", len(targets))
	return nil
}
