package structs

type EnviromentModel struct {
	Database         database
	ConcurrentAmount int
	Timezone         string
	RabbitMQ         rabbitmq
	Log              log
	Email            email
	Server           server
	Router           router
	LLM              llm
	Retry            retry
	Store            store
}

type server struct {
	AppAPI string
}

type database struct {
	Client      string
	MaxIdle     uint
	MaxLifeTime string
	MaxOpenConn uint
	User        string
	Password    string
	Host        string
	Db          string
	Params      string
	Port        string
	LogEnable   int
	AutoMigrate int
}

type rabbitmq struct {
	Domain string
}

type log struct {
	Dir            string
	Level          string
	ElkEnable      int
	ElkIndex       string
	ElkURL         string
	LogstashEnable int
	LogstashURL    string
	LogstashIndex  string
}

type email struct {
	APIUrl string
}

type router struct {
	Port int
}

type llm struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     string
}

type retry struct {
	MaxAttempts    int
	InitialBackoff string
	MaxBackoff     string
	Multiplier     float64
}

type store struct {
	Timeout string
}
