package log

import (
	"fmt"
	"macrotrack-go-worker/utils"
	"net"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
	"gopkg.in/go-extras/elogrus.v7"
)

const hookSource = "macrotrack-go-worker"

type LogService struct{}

type cachedLogger struct {
	date   string
	logger *logrus.Logger
	file   *os.File
}

var (
	cacheMutex  sync.Mutex
	loggers     = make(map[string]*cachedLogger)
	sharedHooks []logrus.Hook
	hooksBuilt  bool
)

// LoggerInit returns the logger writing to <log.dir>/<date>/<id>.log, with the
// ELK and Logstash hooks attached when enabled. Loggers are cached per id; on
// a new day the cached logger moves to the new day's file.
func (l *LogService) LoggerInit(id string) *logrus.Logger {
	if utils.EnvConfig == nil {
		return newLogger()
	}

	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	date := time.Now().In(utils.Location()).Format("2006-01-02")
	cached, ok := loggers[id]
	if ok && cached.date == date {
		return cached.logger
	}

	file := openLogFile(date, id)
	if ok {
		// 換日: 改寫到新的檔案
		if file != nil {
			cached.logger.SetOutput(file)
		}
		if cached.file != nil {
			cached.file.Close()
		}
		cached.date = date
		cached.file = file
		return cached.logger
	}

	logger := newLogger()
	if level, err := logrus.ParseLevel(utils.EnvConfig.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if file != nil {
		logger.SetOutput(file)
	}
	for _, hook := range hooks(logger) {
		logger.Hooks.Add(hook)
	}
	loggers[id] = &cachedLogger{date: date, logger: logger, file: file}
	return logger
}

// TaskLogger is the per-job entry used by the queue handlers. Jobs log to
// their queue's file; the user and task are fields.
func (l *LogService) TaskLogger(task, userID string, taskID uint) *logrus.Entry {
	return l.LoggerInit(task).WithFields(logrus.Fields{"task": task, "user_id": userID, "task_id": taskID})
}

// CloseAll closes every cached log file and forgets the cached loggers.
func CloseAll() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	for id, cached := range loggers {
		if cached.file != nil {
			cached.file.Close()
		}
		delete(loggers, id)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()

	//设置日志级别
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func openLogFile(date, id string) *os.File {
	logFilePath := utils.EnvConfig.Log.Dir
	if !filepath.IsAbs(logFilePath) {
		if dir, err := os.Getwd(); err == nil {
			logFilePath = filepath.Join(dir, logFilePath)
		}
	}
	logFilePath = filepath.Join(logFilePath, date)
	if err := os.MkdirAll(logFilePath, 0777); err != nil {
		fmt.Println(err.Error())
	}

	//日志文件
	fileName := path.Join(logFilePath, id+".log")
	src, err := os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Println("err", err)
		return nil
	}
	return src
}

// hooks builds the ELK and Logstash hooks once; every cached logger shares
// them. Must be called with cacheMutex held.
func hooks(logger *logrus.Logger) []logrus.Hook {
	if hooksBuilt {
		return sharedHooks
	}
	hooksBuilt = true

	if utils.EnvConfig.Log.ElkEnable == 1 {
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{utils.EnvConfig.Log.ElkURL},
		})
		if err != nil {
			logger.Debug(err.Error())
		} else {
			hook, err := elogrus.NewAsyncElasticHook(client, hookSource, logrus.DebugLevel, utils.EnvConfig.Log.ElkIndex)
			if err != nil {
				logger.Debug(err.Error())
			} else {
				sharedHooks = append(sharedHooks, hook)
			}
		}
	}

	if utils.EnvConfig.Log.LogstashEnable == 1 {
		conn, err := net.Dial("udp", utils.EnvConfig.Log.LogstashURL)
		if err != nil {
			logger.Debug(err)
		} else {
			sharedHooks = append(sharedHooks, logrustash.New(conn, logrustash.DefaultFormatter(logrus.Fields{"type": hookSource})))
		}
	}
	return sharedHooks
}
