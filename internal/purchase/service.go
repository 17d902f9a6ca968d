package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/posapp/pos-backend/internal/catalog"
)

// Purchase outcomes reported to Instrumentation.
const (
	OutcomeRecorded = "recorded"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder writes a purchase atomically.
type Recorder interface {
	Record(ctx context.Context, header Header, items []Item) (Receipt, error)
}

// TransactionReader loads committed transactions.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
}

// ProductLookup resolves product codes against the catalog.
type ProductLookup interface {
	FindByCode(ctx context.Context, code string) (catalog.Product, bool, error)
}

// Publisher announces committed purchases to background consumers.
type Publisher interface {
	PurchaseRecorded(ctx context.Context, receipt Receipt) error
}

// Instrumentation observes purchase outcomes.
type Instrumentation interface {
	ObservePurchase(outcome string, items int)
}

// Config toggles request policy.
type Config struct {
	// AllowEmpty accepts purchases without items and records a zero total.
	AllowEmpty bool
	// VerifyItems checks every item's code and product id against the catalog before
	// writing. Snapshot names and prices are never replaced.
	VerifyItems bool
}

// ServiceParams wires a Service. Catalog, Publisher, Metrics and Logger are optional.
type ServiceParams struct {
	Writer    Recorder
	Reader    TransactionReader
	Catalog   ProductLookup
	Publisher Publisher
	Metrics   Instrumentation
	Logger    *slog.Logger
	Config    Config
}

// Service validates purchase requests and hands them to the writer.
type Service struct {
	writer    Recorder
	reader    TransactionReader
	catalog   ProductLookup
	publisher Publisher
	metrics   Instrumentation
	logger    *slog.Logger
	cfg       Config
	validate  *validator.Validate
}

// NewService constructs a Service.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		writer:    p.Writer,
		reader:    p.Reader,
		catalog:   p.Catalog,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    logger,
		cfg:       p.Config,
		validate:  newValidator(),
	}
}

// Purchase validates req and records it. Validation failures wrap ErrValidation and
// never touch storage; write failures wrap ErrStorage. On error the result carries
// Success=false and a message safe to show the caller.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if strings.TrimSpace(req.EmployeeCode) == "" {
		req.EmployeeCode = UnassignedEmployee
	}

	if err := s.check(ctx, req); err != nil {
		outcome := OutcomeRejected
		if !errors.Is(err, ErrValidation) {
			outcome = OutcomeFailed
			s.logger.Error("purchase items not verified",
				slog.String("store", req.StoreCode),
				slog.String("register", req.RegisterID),
				slog.Any("error", err))
		}
		s.observe(outcome, len(req.Items))
		return failure(err), err
	}

	receipt, err := s.writer.Record(ctx, req.header(), req.items())
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, ErrValidation) {
			outcome = OutcomeRejected
		}
		s.observe(outcome, len(req.Items))
		s.logger.Error("purchase not recorded",
			slog.String("store", req.StoreCode),
			slog.String("register", req.RegisterID),
			slog.Any("error", err))
		return failure(err), err
	}
	s.observe(OutcomeRecorded, receipt.ItemCount)

	if s.publisher != nil {
		if err := s.publisher.PurchaseRecorded(ctx, receipt); err != nil {
			s.logger.Warn("purchase event not published",
				slog.Int64("transaction_id", receipt.TransactionID),
				slog.Any("error", err))
		}
	}

	return PurchaseResult{
		Success:       true,
		TotalAmount:   receipt.TotalAmount,
		TransactionID: receipt.TransactionID,
		Message:       "purchase recorded",
	}, nil
}

// Transaction returns a committed transaction by id.
func (s *Service) Transaction(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, ErrNotFound
	}
	return s.reader.GetTransaction(ctx, id)
}

func (s *Service) check(ctx context.Context, req PurchaseRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	if strings.TrimSpace(req.StoreCode) == "" {
		return fmt.Errorf("%w: storeCode is required", ErrValidation)
	}
	if strings.TrimSpace(req.RegisterID) == "" {
		return fmt.Errorf("%w: registerId is required", ErrValidation)
	}
	if len(req.Items) == 0 && !s.cfg.AllowEmpty {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if s.cfg.VerifyItems && s.catalog != nil {
		return s.verify(ctx, req.Items)
	}
	return nil
}

func (s *Service) verify(ctx context.Context, items []PurchaseItem) error {
	seen := make(map[string]catalog.Product, len(items))
	for i, item := range items {
		product, ok := seen[item.Code]
		if !ok {
			var (
				found bool
				err   error
			)
			product, found, err = s.catalog.FindByCode(ctx, item.Code)
			if err != nil {
				return fmt.Errorf("%w: verify items: %w", ErrStorage, err)
			}
			if !found {
				return fmt.Errorf("%w: items[%d]: unknown product code %q", ErrValidation, i, item.Code)
			}
			seen[item.Code] = product
		}
		if product.ID != item.ProductID {
			return fmt.Errorf("%w: items[%d]: productId %d does not match code %q", ErrValidation, i, item.ProductID, item.Code)
		}
	}
	return nil
}

func (s *Service) observe(outcome string, items int) {
	if s.metrics != nil {
		s.metrics.ObservePurchase(outcome, items)
	}
}

func failure(err error) PurchaseResult {
	msg := "purchase could not be recorded"
	if errors.Is(err, ErrValidation) {
		msg = strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	}
	return PurchaseResult{Success: false, Message: msg}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be > %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
