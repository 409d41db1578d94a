package try

// Fataler is something can stop the world with an error,
// like *testing.T or *logrus.Logger.
type Fataler interface {
	Fatal(...any)
}

// Either wraps a (T, error) pair returned from a function.
type Either[T any] interface {
	// Get returns the pair as is.
	Get() (T, error)

	// OrFatal returns T if there are no errors. Otherwise, it calls ftl.Fatal(err).
	OrFatal(ftl Fataler) T

	// OrDefault returns T if there are no errors. Otherwise, it returns d.
	OrDefault(d T) T
}

func To[T any](v T, err error) Either[T] {
	return either[T]{value: v, err: err}
}

type either[T any] struct {
	value T
	err   error
}

func (e either[T]) Get() (T, error) {
	if e.err != nil {
		return *new(T), e.err
	}
	return e.value, nil
}

func (e either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}

func (e either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(e.err)
	return *new(T)
}
