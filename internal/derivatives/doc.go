// Package derivatives provides derivative providers for vector-valued
// functions y = f(x), with x of length InDim and y of length OutDim.
//
// A provider computes the zero order value (ForwardZero), the Jacobian
// J = df/dx (OutDim × InDim) and the weighted Hessian of wᵀf(x)
// (InDim × InDim). Two variants implement [Derivatives]:
//
//   - [NumDiff]: forward or central finite differences around a wrapped function
//   - [Functional]: caller supplied analytic Jacobian, with an optional analytic
//     Hessian and a numeric fallback when none is given
//
// Either dimension may be [Dynamic], in which case it is taken from the
// evaluation point or from the first evaluation of f.
//
// # Sharing
//
// Providers keep a reference to the wrapped function; they never copy or
// own it. A provider adds no locking, so concurrent use is only safe if the
// wrapped function is. Hand each goroutine its own [Derivatives.Clone].
package derivatives
