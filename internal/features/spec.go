// Package features implementa el patrón Specification para la API de features
// de drives: predicados combinables con AND, OR y NOT.
package features

// Spec es un predicado sobre T.
type Spec[T any] interface {
	IsSatisfiedBy(target T) bool
}

// Func adapta una función a Spec.
type Func[T any] func(target T) bool

func (f Func[T]) IsSatisfiedBy(target T) bool { return f(target) }

type andSpec[T any] struct{ one, other Spec[T] }

func (s andSpec[T]) IsSatisfiedBy(target T) bool {
	return s.one.IsSatisfiedBy(target) && s.other.IsSatisfiedBy(target)
}

type orSpec[T any] struct{ one, other Spec[T] }

func (s orSpec[T]) IsSatisfiedBy(target T) bool {
	return s.one.IsSatisfiedBy(target) || s.other.IsSatisfiedBy(target)
}

type notSpec[T any] struct{ one Spec[T] }

func (s notSpec[T]) IsSatisfiedBy(target T) bool { return !s.one.IsSatisfiedBy(target) }

// And se satisface solo si ambas se satisfacen. other no se evalúa si one falla.
func And[T any](one, other Spec[T]) Spec[T] { return andSpec[T]{one: one, other: other} }

// Or se satisface si alguna se satisface. other no se evalúa si one se cumple.
func Or[T any](one, other Spec[T]) Spec[T] { return orSpec[T]{one: one, other: other} }

// Not se satisface solo si one no.
func Not[T any](one Spec[T]) Spec[T] { return notSpec[T]{one: one} }

// Always y Never son los neutros de And y Or.
func Always[T any]() Spec[T] { return Func[T](func(T) bool { return true }) }

func Never[T any]() Spec[T] { return Func[T](func(T) bool { return false }) }

// AllOf combina specs con And. Sin specs se satisface siempre.
func AllOf[T any](specs ...Spec[T]) Spec[T] {
	if len(specs) == 0 {
		return Always[T]()
	}
	acc := specs[0]
	for _, s := range specs[1:] {
		acc = And(acc, s)
	}
	return acc
}

// AnyOf combina specs con Or. Sin specs no se satisface nunca.
func AnyOf[T any](specs ...Spec[T]) Spec[T] {
	if len(specs) == 0 {
		return Never[T]()
	}
	acc := specs[0]
	for _, s := range specs[1:] {
		acc = Or(acc, s)
	}
	return acc
}

// Chain envuelve una Spec para encadenar: Of(a).And(b).Or(c).Not().
type Chain[T any] struct{ Spec[T] }

// Of inicia una cadena.
func Of[T any](s Spec[T]) Chain[T] { return Chain[T]{s} }

func (c Chain[T]) And(other Spec[T]) Chain[T] { return Chain[T]{And(c.Spec, other)} }

func (c Chain[T]) Or(other Spec[T]) Chain[T] { return Chain[T]{Or(c.Spec, other)} }

func (c Chain[T]) Not() Chain[T] { return Chain[T]{Not(c.Spec)} }
