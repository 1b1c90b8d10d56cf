package middleware

import (
	"context"
	"net/http"

	"SubletHubPlatform/pkg/errors"
)

// Step один шаг обработки запроса.
// Возвращает обогащенный контекст либо ошибку, прерывающую цепочку.
type Step func(r *http.Request) (context.Context, error)

// Pipeline упорядоченная цепочка шагов
type Pipeline struct {
	steps []Step
}

// NewPipeline создает цепочку из шагов в заданном порядке
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: append([]Step(nil), steps...)}
}

// Then возвращает новую цепочку, дополненную шагами; исходная не меняется
func (p *Pipeline) Then(steps ...Step) *Pipeline {
	combined := make([]Step, 0, len(p.steps)+len(steps))
	combined = append(combined, p.steps...)
	combined = append(combined, steps...)
	return &Pipeline{steps: combined}
}

// Run выполняет шаги по порядку и возвращает запрос с накопленным контекстом
func (p *Pipeline) Run(r *http.Request) (*http.Request, error) {
	for _, step := range p.steps {
		ctx, err := step(r)
		if err != nil {
			return r, err
		}
		r = r.WithContext(ctx)
	}
	return r, nil
}

// Wrap защищает обработчик цепочкой; ошибка шага отдается клиенту как JSON
func (p *Pipeline) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admitted, err := p.Run(r)
		if err != nil {
			errors.WriteJSON(w, err)
			return
		}
		next.ServeHTTP(w, admitted)
	})
}

// WrapFunc аналог Wrap для http.HandlerFunc
func (p *Pipeline) WrapFunc(next http.HandlerFunc) http.Handler {
	return p.Wrap(next)
}
