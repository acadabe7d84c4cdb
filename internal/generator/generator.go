// Package generator synthesises realistic raw profiles for load tests and
// batch re-scoring runs.
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/scoring"
)

var (
	genders     = []string{"male", "female", "other"}
	occupations = []string{"software engineer", "teacher", "analyst", "manager", "sales", "technician", "clerk"}
	fields      = []string{"computer science", "commerce", "mechanical engineering", "biology", "economics", "design"}
	payments    = []string{"on-time", "late", "na"}
)

type weighted struct {
	value  string
	weight float64
}

var (
	workingEducation = []weighted{
		{"high-school", 0.05}, {"bachelors", 0.6}, {"masters", 0.25}, {"phd", 0.05}, {"other", 0.05},
	}
	studentEducation = []weighted{
		{"high-school", 0.1}, {"bachelors", 0.7}, {"masters", 0.05}, {"other", 0.15},
	}
)

// Generator produces synthetic profile records.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance. A zero seed is replaced by the clock.
func New(cfg Config) *Generator {
	if cfg.NumWorking < 0 {
		cfg.NumWorking = 0
	}
	if cfg.NumStudents < 0 {
		cfg.NumStudents = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate builds the configured number of working and student records in
// shuffled order. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]scoring.ProfileRecord, error) {
	total := g.cfg.NumWorking + g.cfg.NumStudents
	records := make([]scoring.ProfileRecord, 0, total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := uuid.NewRandomFromReader(g.rand)
		if err != nil {
			return nil, fmt.Errorf("generate user id: %w", err)
		}

		var profile scoring.RawProfile
		if i < g.cfg.NumWorking {
			profile = g.workingProfile()
		} else {
			profile = g.studentProfile()
		}
		records = append(records, scoring.ProfileRecord{UserID: id.String(), Profile: profile})
	}

	g.rand.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
	return records, nil
}

func (g *Generator) workingProfile() scoring.RawProfile {
	income := make(scoring.IncomeSeries, domain.IncomeMonths)
	var sum float64
	for i := range income {
		v := g.uniform(10000, 120000)
		income[i] = scoring.Num(v)
		sum += v
	}

	// Higher earners pay on time more often.
	onTime := math.Min(0.95, 0.3+sum/float64(domain.IncomeMonths)/120000)
	pay := func() string {
		r := g.rand.Float64()
		switch {
		case r < onTime:
			return "on-time"
		case r < onTime+0.15:
			return "late"
		default:
			return "na"
		}
	}

	return scoring.RawProfile{
		UserType:        string(domain.UserTypeWorking),
		Age:             scoring.Num(float64(22 + g.rand.Intn(39))),
		Gender:          g.pick(genders),
		EducationLevel:  g.pickWeighted(workingEducation),
		Occupation:      g.pick(occupations),
		MonthlyIncome:   income,
		RentPayment:     pay(),
		Utility1Payment: pay(),
		Utility2Payment: pay(),
	}
}

func (g *Generator) studentProfile() scoring.RawProfile {
	income := make(scoring.IncomeSeries, domain.IncomeMonths)
	for i := range income {
		var v float64
		if g.rand.Float64() < 0.4 {
			v = g.uniform(0, 5000)
		}
		income[i] = scoring.Num(v)
	}

	var cosigner float64
	if g.rand.Float64() < 0.3 {
		cosigner = g.uniform(0, 150000)
	}
	scholarship := g.rand.Float64() < 0.25 && g.rand.Intn(2) == 1

	return scoring.RawProfile{
		UserType:        string(domain.UserTypeStudent),
		Age:             scoring.Num(float64(18 + g.rand.Intn(13))),
		Gender:          g.pick(genders),
		EducationLevel:  g.pickWeighted(studentEducation),
		Occupation:      "student",
		FieldOfStudy:    g.pick(fields),
		MonthlyIncome:   income,
		RentPayment:     g.pick(payments),
		Utility1Payment: g.pick(payments),
		Utility2Payment: g.pick(payments),
		GPA:             scoring.Num(g.uniform(5, 10)),
		CollegeScore:    scoring.Num(float64(40 + g.rand.Intn(56))),
		CosignerIncome:  scoring.Num(cosigner),
		Scholarship:     scoring.Flag{Value: scholarship, Valid: true},
	}
}

// uniform returns a value in [lo, hi) rounded to two decimals.
func (g *Generator) uniform(lo, hi float64) float64 {
	return math.Round((lo+g.rand.Float64()*(hi-lo))*100) / 100
}

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

func (g *Generator) pickWeighted(values []weighted) string {
	var total float64
	for _, v := range values {
		total += v.weight
	}
	r := g.rand.Float64() * total
	for _, v := range values {
		if r < v.weight {
			return v.value
		}
		r -= v.weight
	}
	return values[len(values)-1].value
}
