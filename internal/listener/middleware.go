package listener

// TesterMiddleware wraps a tester (guild checks, role checks).
type TesterMiddleware[C any] func(Tester[C]) Tester[C]

// HandlerMiddleware wraps a handler (history logging, timing).
type HandlerMiddleware[C any] func(Handler[C]) Handler[C]

// WrapTester applies mws to t; the first in the list is the outermost.
func WrapTester[C any](t Tester[C], mws ...TesterMiddleware[C]) Tester[C] {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// WrapHandler applies mws to h; the first in the list is the outermost.
func WrapHandler[C any](h Handler[C], mws ...HandlerMiddleware[C]) Handler[C] {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
