package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"arith-quiz-service/internal/bank"
	"arith-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches a question bank from a backing store (file, Postgres, ...).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches banks with TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

// NewBankRepository caches loader results for ttl. A ttl <= 0 caches forever.
func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) lookup(bankID string, now time.Time) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[bankID]
	if !ok || (r.ttl > 0 && !entry.expiresAt.After(now)) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if b, ok := r.lookup(bankID, r.clock()); ok {
		return b, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		now := r.clock()
		if b, ok := r.lookup(bankID, now); ok {
			return b, nil
		}

		b, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		r.mu.Lock()
		r.cache[bankID] = cachedBank{
			bank:      b,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from memory. The built-in bank is always present.
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks ...domain.QuestionBank) *StaticBankLoader {
	l := &StaticBankLoader{banks: map[string]domain.QuestionBank{}}
	builtin := bank.Builtin()
	l.banks[builtin.ID] = builtin
	for _, b := range banks {
		l.banks[b.ID] = b
	}
	return l
}

func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if b, ok := l.banks[bankID]; ok {
		return b, nil
	}
	return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, bankID)
}

// FileBankLoader reads a YAML or JSON bank document from disk on every load.
type FileBankLoader struct {
	path string
}

func NewFileBankLoader(path string) *FileBankLoader {
	return &FileBankLoader{path: path}
}

func (l *FileBankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("%w: read %s: %v", domain.ErrBankNotFound, l.path, err)
	}
	b, err := bank.Parse(data)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("parse %s: %w", l.path, err)
	}
	if b.ID != bankID {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s holds bank %q", domain.ErrBankNotFound, l.path, b.ID)
	}
	return b, nil
}

// ChainBankLoader asks each loader in turn, moving on only when a loader
// does not have the bank.
type ChainBankLoader []BankLoader

func (c ChainBankLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	err := fmt.Errorf("%w: %s", domain.ErrBankNotFound, bankID)
	for _, l := range c {
		var b domain.QuestionBank
		b, err = l.LoadBank(ctx, bankID)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, domain.ErrBankNotFound) {
			return domain.QuestionBank{}, err
		}
	}
	return domain.QuestionBank{}, err
}
