package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
type Closer struct {
	funcs         []namedFunc
	mu            sync.Mutex
	once          sync.Once
	forcedTimeout time.Duration
}

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type namedFunc struct {
	name string
	fn   Func
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие того, что не успело закрыться до отмены контекста.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс. name попадает в текст ошибки закрытия.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, namedFunc{name: name, fn: f})
}

// Close вызывается один раз, повторные вызовы возвращают nil.
// Если ctx отменяется раньше, оставшиеся ресурсы закрываются параллельно с forcedTimeout.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		funcs := c.funcs
		c.mu.Unlock()

		remaining, errs := c.gracefulClose(ctx, funcs)
		if len(remaining) > 0 {
			errs = append(errs, fmt.Errorf("shutdown interrupted: %d of %d left", len(remaining), len(funcs)))
			errs = append(errs, c.forcedClose(remaining)...)
		}

		err = errors.Join(errs...)
	})

	return err
}

// gracefulClose возвращает ресурсы, до которых не дошла очередь из-за отмены ctx.
func (c *Closer) gracefulClose(ctx context.Context, funcs []namedFunc) ([]namedFunc, []error) {
	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		f := funcs[i]
		done := make(chan error, 1)

		go func() {
			done <- f.fn(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			}
		case <-ctx.Done():
			return funcs[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) forcedClose(funcs []namedFunc) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, f := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", f.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
