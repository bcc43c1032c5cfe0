package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTxManager runs the closure directly and can simulate a commit failure
// after the closure succeeded.
type stubTxManager struct {
	commitErr error
}

func (m *stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

type recordingNotifier struct {
	sent chan string
}

func (n *recordingNotifier) Send(_ context.Context, text string) {
	n.sent <- text
}

type stubReturnRepo struct{}

func (stubReturnRepo) Create(ctx context.Context, rec *model.ReturnRecord) error { return nil }
func (stubReturnRepo) FindByID(ctx context.Context, id string) (*model.ReturnRecord, error) {
	return nil, errors.New("not stubbed")
}
func (stubReturnRepo) List(ctx context.Context, filter repository.ReturnFilter) ([]model.ReturnRecord, int64, error) {
	return nil, 0, nil
}
func (stubReturnRepo) ListAll(ctx context.Context) ([]model.ReturnRecord, error) { return nil, nil }
func (stubReturnRepo) ListByCollectionOrder(ctx context.Context, orderID string) ([]model.ReturnRecord, error) {
	return nil, nil
}
func (stubReturnRepo) UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error {
	return nil
}

type stubAuditRepo struct{}

func (stubAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error { return nil }
func (stubAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}

type stubNumbers struct{}

func (stubNumbers) NextReturnNumber(ctx context.Context, branch string) (string, error) {
	return "RET-BKK-2024-0001", nil
}
func (stubNumbers) NextCollectionOrderNumber(ctx context.Context, branch string) (string, error) {
	return "COL-BKK-2024-0001", nil
}
func (stubNumbers) NextShipmentNumber(ctx context.Context, branch string) (string, error) {
	return "SHP-BKK-2024-0001", nil
}
func (stubNumbers) NextNCRNumber(ctx context.Context, branch string) (string, error) {
	return "NCR-BKK-2024-0001", nil
}

func submittedCreateRequest() CreateReturnRequest {
	return CreateReturnRequest{
		RefNo:       "INV-1001",
		Branch:      "กรุงเทพฯ",
		ProductCode: "P-100",
		ProductName: "Widget",
		Quantity:    5,
		Unit:        "Piece",
		Submit:      true,
	}
}

func TestCreateDoesNotNotifyWhenCommitFails(t *testing.T) {
	notifier := &recordingNotifier{sent: make(chan string, 1)}
	svc := NewReturnService(
		stubReturnRepo{}, nil, nil, stubAuditRepo{},
		&stubTxManager{commitErr: errors.New("commit failed")},
		stubNumbers{}, nil, notifier,
	)

	_, err := svc.Create(context.Background(), "", submittedCreateRequest())
	require.Error(t, err)

	select {
	case msg := <-notifier.sent:
		t.Fatalf("notification sent for an uncommitted record: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCreateNotifiesAfterCommit(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()

	notifier := &recordingNotifier{sent: make(chan string, 1)}
	svc := NewReturnService(
		stubReturnRepo{}, nil, nil, stubAuditRepo{},
		&stubTxManager{}, stubNumbers{}, hub, notifier,
	)

	res, err := svc.Create(context.Background(), "", submittedCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "Requested", res.Status)

	select {
	case msg := <-notifier.sent:
		assert.Contains(t, msg, res.ID)
	case <-time.After(time.Second):
		t.Fatal("expected a request notification")
	}
}
