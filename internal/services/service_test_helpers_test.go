package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/auth/providers"
	"github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/mail"
)

type fixture struct {
	db  *gorm.DB
	ai  models.InvestorType
	qc  models.InvestorType
	qp  models.InvestorType
	ctx context.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	return fixture{
		db:  db,
		ai:  testutil.MustInvestorType(t, db, models.InvestorTypeAccredited),
		qc:  testutil.MustInvestorType(t, db, models.InvestorTypeQC),
		qp:  testutil.MustInvestorType(t, db, models.InvestorTypeQP),
		ctx: context.Background(),
	}
}

func newAuditService(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	return svc
}

func newUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()
	provider, err := providers.NewLocalProvider(db, providers.LocalConfig{})
	require.NoError(t, err)
	svc, err := NewUserService(db, provider, newAuditService(t, db))
	require.NoError(t, err)
	return svc
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
