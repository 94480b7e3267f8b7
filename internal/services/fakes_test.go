package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"servimarket_backend/internal/email"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testDB returns a *gorm.DB backed by sqlmock that accepts any transaction.
// Repositories are faked in these tests, so no real SQL ever runs; only the
// BEGIN/COMMIT/ROLLBACK of db.Transaction reach the mock.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

// --- user repository fake ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(db *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateVerification(db *gorm.DB, userID string, step models.VerificationStep, status models.VerificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.VerificationStep = step
	u.VerificationStatus = status
	return nil
}

func (r *fakeUserRepo) MarkPhoneVerified(db *gorm.DB, userID, via string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	now := time.Now()
	u.PhoneVerifiedAt = &now
	u.PhoneVerifiedVia = via
	return nil
}

func (r *fakeUserRepo) Activate(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsActive = true
	u.VerificationStatus = models.VerificationStatusVerified
	u.VerificationStep = models.StepCompleted
	return nil
}

func (r *fakeUserRepo) Deactivate(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsActive = false
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (r *fakeUserRepo) get(id string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// --- document repository fake ---

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs []*models.Document
}

func newFakeDocumentRepo(docs ...*models.Document) *fakeDocumentRepo {
	repo := &fakeDocumentRepo{}
	for _, d := range docs {
		repo.add(d)
	}
	return repo
}

func (r *fakeDocumentRepo) add(d *models.Document) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().Add(time.Duration(len(r.docs)) * time.Second)
	}
	if d.Status == "" {
		d.Status = models.DocumentStatusPending
	}
	r.docs = append(r.docs, d)
}

func (r *fakeDocumentRepo) Create(db *gorm.DB, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.add(&cp)
	doc.ID = cp.ID
	doc.UploadedAt = cp.UploadedAt
	return nil
}

func (r *fakeDocumentRepo) FindByID(db *gorm.DB, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repositories.ErrDocumentNotFound
}

func (r *fakeDocumentRepo) Find(db *gorm.DB, filter repositories.DocumentFilter) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (r *fakeDocumentRepo) LatestByType(db *gorm.DB, userID string, docType models.DocumentType) (*models.Document, error) {
	docs, _ := r.Find(db, repositories.DocumentFilter{UserID: userID, Type: docType})
	if len(docs) == 0 {
		return nil, repositories.ErrDocumentNotFound
	}
	return &docs[0], nil
}

func (r *fakeDocumentRepo) LatestPerType(db *gorm.DB, userID string) (map[models.DocumentType]models.Document, error) {
	docs, _ := r.Find(db, repositories.DocumentFilter{UserID: userID})
	out := map[models.DocumentType]models.Document{}
	for _, d := range docs {
		if _, seen := out[d.Type]; !seen {
			out[d.Type] = d
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Review(db *gorm.DB, docID string, status models.DocumentStatus, reviewerID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID != docID {
			continue
		}
		if d.Status != models.DocumentStatusPending {
			return 0, nil
		}
		now := time.Now()
		d.Status = status
		d.ReviewedAt = &now
		d.ReviewedBy = reviewerID
		d.RejectionReason = reason
		return 1, nil
	}
	return 0, nil
}

// --- outbox repository fake ---

type fakeOutboxRepo struct {
	mu   sync.Mutex
	rows []*models.OutboxNotification
}

func (r *fakeOutboxRepo) Create(db *gorm.DB, row *models.OutboxNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = time.Now()
	cp := *row
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeOutboxRepo) FindUnprocessed(db *gorm.DB, limit int) ([]models.OutboxNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OutboxNotification
	for _, row := range r.rows {
		if row.ProcessedAt == nil {
			out = append(out, *row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkProcessed(db *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			now := time.Now()
			row.ProcessedAt = &now
			return nil
		}
	}
	return nil
}

func (r *fakeOutboxRepo) CountPending(db *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.ProcessedAt == nil {
			n++
		}
	}
	return n, nil
}

// --- refresh token repository fake ---

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *fakeRefreshRepo) Create(db *gorm.DB, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeRefreshRepo) FindByToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenString]
	if !ok {
		return nil, repositories.ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRefreshRepo) DeleteByToken(db *gorm.DB, tokenString string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenString)
	return nil
}

func (r *fakeRefreshRepo) DeleteByUserID(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeRefreshRepo) CleanExpired(db *gorm.DB) error {
	return nil
}

// --- code repository fake ---

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: map[string]string{}}
}

func (r *fakeCodeRepo) key(kind repositories.CodeKind, userID string) string {
	return string(kind) + ":" + userID
}

func (r *fakeCodeRepo) Store(ctx context.Context, kind repositories.CodeKind, userID, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[r.key(kind, userID)] = code
	return nil
}

func (r *fakeCodeRepo) Consume(ctx context.Context, kind repositories.CodeKind, userID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.codes[r.key(kind, userID)]
	if !ok {
		return repositories.ErrCodeMissing
	}
	if stored != code {
		return repositories.ErrCodeMismatch
	}
	delete(r.codes, r.key(kind, userID))
	return nil
}

func (r *fakeCodeRepo) current(kind repositories.CodeKind, userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[r.key(kind, userID)]
}

// --- storage fake ---

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failing bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) error {
	if s.failing {
		return io.ErrClosedPipe
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *fakeStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *fakeStorage) GetURL(ctx context.Context, path string) (string, error) {
	return "/api/v1/files/" + path, nil
}

func (s *fakeStorage) GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "/signed/" + path, nil
}

func (s *fakeStorage) GetSize(ctx context.Context, path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.objects[path])), nil
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// --- provider fakes ---

type fakeSMS struct {
	mu    sync.Mutex
	sent  []string
	codes []string
}

func (p *fakeSMS) SendCode(ctx context.Context, phone, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, phone)
	p.codes = append(p.codes, code)
	return nil
}

type fakeEmail struct {
	mu        sync.Mutex
	templates []string
	codes     []string
	ttls      []int
}

func (p *fakeEmail) Send(e *email.Email) error { return nil }

func (p *fakeEmail) SendTemplate(to []string, subject, templateName string, data email.TemplateData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.templates = append(p.templates, templateName)
	return nil
}

func (p *fakeEmail) SendVerificationCode(to, code string, ttlMinutes int) error {
	p.mu.Lock()
	p.codes = append(p.codes, code)
	p.ttls = append(p.ttls, ttlMinutes)
	p.mu.Unlock()
	return p.SendTemplate([]string{to}, "code", "verification_code", nil)
}

func (p *fakeEmail) Validate() error { return nil }
func (p *fakeEmail) Close() error    { return nil }

func (p *fakeEmail) lastTTL() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ttls) == 0 {
		return 0
	}
	return p.ttls[len(p.ttls)-1]
}
