package purchase

import (
	"errors"
	"fmt"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// Error kinds. Callers branch with errors.Is.
var (
	// ErrValidation marks a request rejected before storage was contacted.
	ErrValidation = fmt.Errorf("purchase: %w", httpx.ErrValidation)
	// ErrStorage marks a failed write; nothing from the call was persisted.
	ErrStorage = errors.New("purchase: storage failure")
	// ErrNotFound is returned when reading a transaction id that does not exist.
	ErrNotFound = fmt.Errorf("purchase: transaction %w", httpx.ErrNotFound)
)
