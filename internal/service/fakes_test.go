package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/limiter"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
	"github.com/and161185/appealkit/internal/session"
	"go.uber.org/zap/zaptest"
)

type fakeUsers struct {
	mu sync.Mutex

	token    string
	user     model.User
	loginErr error
	meErr    error

	regResult model.RegistrationResult
	regErr    error

	verifyErr error
	forgotErr error
	resetErr  error

	loginCalls  int
	lastCreds   model.Credentials
	regCalls    int
	lastReg     model.Registration
	verified    []string
	forgotCalls int
	resetArgs   []string
}

var _ repository.AuthRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Login(_ context.Context, creds model.Credentials) (string, model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.lastCreds = creds
	if f.loginErr != nil {
		return "", model.User{}, f.loginErr
	}
	return f.token, f.user, nil
}

func (f *fakeUsers) CurrentUser(context.Context, string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return model.User{}, f.meErr
	}
	return f.user, nil
}

func (f *fakeUsers) Register(_ context.Context, reg model.Registration) (model.RegistrationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regCalls++
	f.lastReg = reg
	return f.regResult, f.regErr
}

func (f *fakeUsers) VerifyEmail(_ context.Context, email, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verified = append(f.verified, email+":"+otp)
	return nil
}

func (f *fakeUsers) ForgotPassword(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotCalls++
	return f.forgotErr
}

func (f *fakeUsers) ResetPassword(_ context.Context, email, code, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetArgs = []string{email, code, password}
	return f.resetErr
}

// fakeCases keeps per-analysis reaction lists and toggles them like the
// backend does, for user "u1".
type fakeCases struct {
	mu sync.Mutex

	createRes model.CaseResult
	createErr error
	created   []model.CaseSubmission

	page     model.Page[model.Case]
	listArgs [2]int
	got      model.CaseResult
	getErr   error

	liked    map[string]map[string]bool
	disliked map[string]map[string]bool
	reactErr error
	// gate, when set, blocks Like until it is closed.
	gate chan struct{}
}

var _ repository.CaseRepository = (*fakeCases)(nil)

func (f *fakeCases) Create(_ context.Context, sub model.CaseSubmission) (model.CaseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, sub)
	return f.createRes, f.createErr
}

func (f *fakeCases) List(_ context.Context, page, limit int) (model.Page[model.Case], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listArgs = [2]int{page, limit}
	return f.page, nil
}

func (f *fakeCases) Get(context.Context, string) (model.CaseResult, error) {
	return f.got, f.getErr
}

func (f *fakeCases) Like(_ context.Context, id string) (model.Reactions, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.toggle(id, true)
}

func (f *fakeCases) Dislike(_ context.Context, id string) (model.Reactions, error) {
	return f.toggle(id, false)
}

func (f *fakeCases) toggle(id string, like bool) (model.Reactions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactErr != nil {
		return model.Reactions{}, f.reactErr
	}
	if f.liked == nil {
		f.liked, f.disliked = map[string]map[string]bool{}, map[string]map[string]bool{}
	}
	if f.liked[id] == nil {
		f.liked[id], f.disliked[id] = map[string]bool{}, map[string]bool{}
	}
	on, off := f.liked[id], f.disliked[id]
	if !like {
		on, off = off, on
	}
	if on["u1"] {
		delete(on, "u1")
	} else {
		on["u1"] = true
		delete(off, "u1")
	}
	return model.Reactions{
		Likes:       len(f.liked[id]),
		Dislikes:    len(f.disliked[id]),
		HasLiked:    f.liked[id]["u1"],
		HasDisliked: f.disliked[id]["u1"],
	}, nil
}

type fakeBilling struct {
	plans       []model.Plan
	createdPlan *model.Plan
	checkoutFor string
}

var _ repository.BillingRepository = (*fakeBilling)(nil)

func (f *fakeBilling) ListPlans(context.Context) ([]model.Plan, error) { return f.plans, nil }

func (f *fakeBilling) CreatePlan(_ context.Context, p model.Plan) (model.Plan, error) {
	f.createdPlan = &p
	p.ID = "p-new"
	return p, nil
}

func (f *fakeBilling) CreateCheckout(_ context.Context, planID string) (model.PaymentSession, error) {
	if planID == "missing" {
		return model.PaymentSession{}, errs.ErrNotFound
	}
	f.checkoutFor = planID
	return model.PaymentSession{SessionID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

// clock drives resend cooldowns by hand.
type clock struct {
	ch    chan time.Time
	ticks chan int
}

func newClock() *clock { return &clock{ch: make(chan time.Time), ticks: make(chan int, 128)} }

func (c *clock) C() <-chan time.Time { return c.ch }
func (c *clock) Stop()               {}

func (c *clock) cooldown() *limiter.Cooldown {
	return limiter.NewCooldown(limiter.DefaultResendCooldown,
		limiter.WithTicker(func(time.Duration) limiter.Ticker { return c }),
		limiter.WithOnTick(func(left int) { c.ticks <- left }),
	)
}

// advance ticks n seconds and returns the remaining value after each.
func (c *clock) advance(t *testing.T, n int) []int {
	t.Helper()
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		select {
		case c.ch <- time.Now():
		case <-time.After(time.Second):
			t.Fatalf("cooldown not running at tick %d", i)
		}
		out = append(out, <-c.ticks)
	}
	return out
}

func signedIn(t *testing.T, u model.User) *session.Store {
	t.Helper()
	s := session.NewStore(&fakeUsers{user: u}, &session.MemoryTokenStore{}, zaptest.NewLogger(t))
	s.Establish("tok-"+u.ID, u)
	return s
}
