package request

import "context"

// Parallel groups requests into one Sendable.
// All requests are sent concurrently, the errors are joined.
func Parallel(requests ...Sendable) Sendable {
	return parallel(requests)
}

type parallel []Sendable

func (p parallel) SendOrErr(ctx context.Context) error {
	wg := NewWaitGroup(ctx)
	for _, r := range p {
		wg.Send(r)
	}
	return wg.Wait()
}
