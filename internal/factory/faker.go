package factory

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Rana718/quarry/internal/types"
	"github.com/google/uuid"
)

// Faker produces plausible column values. It is safe for concurrent use.
type Faker struct {
	mu      sync.Mutex
	rand    *rand.Rand
	counter int
}

func NewFaker() *Faker {
	return NewSeededFaker(time.Now().UnixNano())
}

// NewSeededFaker returns a Faker with a fixed seed, for reproducible runs.
func NewSeededFaker(seed int64) *Faker {
	return &Faker{rand: rand.New(rand.NewSource(seed))}
}

func (f *Faker) intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rand.Intn(n)
}

func (f *Faker) next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return f.counter
}

// ForColumn returns a value for col, by name for strings and by type otherwise.
func (f *Faker) ForColumn(col types.SchemaColumn) any {
	switch col.Type {
	case types.TypeString, types.TypeChar, types.TypeText, types.TypeMediumText, types.TypeLongText:
		return f.forText(col)
	case types.TypeInteger, types.TypeBigInteger, types.TypeSmallInteger:
		return f.Int(1, 1000000)
	case types.TypeTinyInteger:
		return f.Int(1, 100)
	case types.TypeBoolean:
		return f.Bool()
	case types.TypeTimestamp, types.TypeDateTime:
		return f.Timestamp()
	case types.TypeDate:
		return f.Date()
	case types.TypeTime:
		return f.Timestamp().Format("15:04:05")
	case types.TypeDecimal, types.TypeFloat, types.TypeDouble:
		return float64(f.intn(1000000)) / 100
	case types.TypeUUID:
		return f.UUID()
	case types.TypeJSON, types.TypeJSONB:
		return `{"generated": true}`
	case types.TypeEnum:
		if len(col.EnumValues) == 0 {
			return nil
		}
		return f.Pick(col.EnumValues...)
	case types.TypeBinary:
		return []byte(f.Word())
	default:
		return f.forText(col)
	}
}

func (f *Faker) forText(col types.SchemaColumn) string {
	name := strings.ToLower(col.Name)

	var v string
	switch {
	case strings.Contains(name, "email"):
		return f.Email()
	case strings.Contains(name, "uuid"):
		return f.UUID()
	case strings.Contains(name, "name") && !strings.Contains(name, "file") && !strings.Contains(name, "user"):
		v = f.Name()
	case strings.Contains(name, "title"):
		v = f.Title()
	case strings.Contains(name, "description") || strings.Contains(name, "content") || strings.Contains(name, "body"):
		v = f.Sentence()
	case strings.Contains(name, "url") || strings.Contains(name, "link"):
		v = f.URL()
	case strings.Contains(name, "phone"):
		v = f.Phone()
	case strings.Contains(name, "address"):
		v = f.Address()
	default:
		v = f.Word()
	}
	if col.IsUnique {
		v = fmt.Sprintf("%s %d", v, f.next())
	}
	if col.Length > 0 && len(v) > col.Length {
		v = v[:col.Length]
	}
	return v
}

func (f *Faker) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + f.intn(max-min+1)
}

func (f *Faker) Bool() bool {
	return f.intn(2) == 1
}

// Pick returns one of values.
func (f *Faker) Pick(values ...string) string {
	return values[f.intn(len(values))]
}

func (f *Faker) Name() string {
	firstNames := []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	return f.Pick(firstNames...) + " " + f.Pick(lastNames...)
}

// Email is unique for the lifetime of the Faker.
func (f *Faker) Email() string {
	domains := []string{"example.com", "test.com", "demo.com", "mail.com"}
	return fmt.Sprintf("user%d_%d@%s", f.next(), f.intn(100000), f.Pick(domains...))
}

func (f *Faker) Title() string {
	return f.Pick(
		"Blue in Green",
		"So What",
		"Paranoid Android",
		"Heroes",
		"Smells Like Teen Spirit",
		"A Love Supreme",
		"Windowlicker",
		"Teardrop",
	)
}

func (f *Faker) Sentence() string {
	return f.Pick(
		"This is a sample text generated for testing purposes.",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		"The quick brown fox jumps over the lazy dog.",
		"Recorded live in a single take.",
		"Remastered from the original tapes.",
	)
}

func (f *Faker) Word() string {
	return f.Pick("alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta")
}

func (f *Faker) URL() string {
	return fmt.Sprintf("https://example.com/page/%d", f.intn(1000))
}

func (f *Faker) Phone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", f.intn(1000), f.intn(1000), f.intn(10000))
}

func (f *Faker) Address() string {
	return fmt.Sprintf("%d Main Street, City, State %05d", f.intn(9999)+1, f.intn(100000))
}

// Timestamp is a UTC time within the last year.
func (f *Faker) Timestamp() time.Time {
	return time.Now().UTC().AddDate(0, 0, -f.intn(365)).Truncate(time.Second)
}

func (f *Faker) Date() string {
	return f.Timestamp().Format("2006-01-02")
}

func (f *Faker) UUID() string {
	return uuid.NewString()
}
