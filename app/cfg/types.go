package cfg

type Cfg struct {
	// Storage configuration
	FeedsDir  string
	OutputDir string
	DBPath    string

	// Application configuration
	Port              string
	BaseUrl           string
	IndexTitle        string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
