package toolserver

import (
	"encoding/json"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Dispatcher routes tool invocations through the readonly gate and logs one
// line per call, the way the teacher's server.go handlers each log via the
// chi request logger — here at the tool layer instead of the HTTP layer,
// since stdio has no request middleware of its own.
type Dispatcher struct {
	svc      *Service
	registry map[string]Tool
	readonly bool
	logger   *log.Logger
}

func NewDispatcher(svc *Service, readonly bool, logger *log.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, registry: Registry(), readonly: readonly, logger: logger}
}

// Invoke runs tool with the given JSON params, refusing mutating tools when
// the server is readonly (spec.md §7 ReadonlyRefused).
func (d *Dispatcher) Invoke(tool string, params json.RawMessage) (json.RawMessage, error) {
	start := time.Now()
	correlationID := uuid.New().String()
	entry := d.logger.With("tool", tool, "correlationId", correlationID)

	t, ok := d.registry[tool]
	if !ok {
		verr := domain.NewValidationError()
		verr.Add("tool", "unknown tool: "+tool)
		entry.Warn("unknown tool", "duration", time.Since(start))
		return nil, verr
	}

	if d.readonly && t.Mutating {
		err := &domain.ReadonlyRefusedError{Tool: tool}
		entry.Warn("refused in readonly mode", "duration", time.Since(start))
		return nil, err
	}

	result, err := t.Handler(d.svc, params)
	duration := time.Since(start)
	if err != nil {
		entry.Error("tool failed", "duration", duration, "error", err)
		return nil, err
	}
	entry.Info("tool ok", "duration", duration)

	out, jsonErr := json.Marshal(result)
	if jsonErr != nil {
		return nil, jsonErr
	}
	return out, nil
}
