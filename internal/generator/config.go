package generator

// Config drives the synthetic profile generator.
type Config struct {
	NumWorking  int
	NumStudents int
	Seed        int64
}

// DefaultConfig mirrors the even working/student split of the training data.
func DefaultConfig() Config {
	return Config{
		NumWorking:  500,
		NumStudents: 500,
		Seed:        42,
	}
}
