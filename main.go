package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/router"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/services/estimate"
	"macrotrack-go-worker/services/job"
	logLib "macrotrack-go-worker/services/log"
	"macrotrack-go-worker/services/rabbitmq"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/services/trackLog"
	"macrotrack-go-worker/utils"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

func main() {

	// 初始化 env
	var envService utils.EnvService
	envService.InitEnv()
	fmt.Println("參數初始化成功...")
	trackLog.LogTrackInit()

	st, err := store.New()
	failOnError(err, "Failed to open the store")
	defer st.Close()
	insertActivityLog(st, "schedule.go.job.init", "macrotrack-worker 初始化")

	var logService logLib.LogService
	mainLogger := logService.LoggerInit("main").WithFields(logrus.Fields{"task": "main", "name": "主程式"})

	defer func() {
		// 發送 ELK
		mainLogger.Error("worker shutdown")
		// 發送 email
		crashEmailAlert("worker shutdown")
		fmt.Println("worker shutdown")
		logLib.CloseAll()
	}()

	runner := job.NewRunner(st, estimate.NewOpenAIEstimator(mainLogger.WithField("component", "estimator")))

	route := router.Router()
	go func() {
		if err := route.Run(fmt.Sprintf(":%d", utils.EnvConfig.Router.Port)); err != nil {
			trackLog.Error(err.Error(), true)
		}
	}()

	go MacrotrackQueue(runner)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func MacrotrackQueue(runner *job.Runner) {
	conn := rabbitmq.NewConnection(enums.ConnectionName, job.Queues)

	if err := conn.Connect(); err != nil {
		panic(err)
	}
	if err := conn.BindQueue(); err != nil {
		panic(err)
	}
	runner.Enqueue = func(queue string, payload interface{}) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return conn.Publish(rabbitmq.Message{Queue: queue, CorrelationID: uuid.NewString(), Body: body})
	}
	deliveries, err := conn.Consume()
	if err != nil {
		panic(err)
	}

	go conn.HandleConsumedDeliveries(deliveries, MacrotrackHandler(runner))
	log.Printf(" [ %s ] [ %s ] Waiting for messages. To exit press CTRL+C", enums.ConnectionName, strings.Join(job.Queues, " "))
}

// MacrotrackHandler drains a queue with ConcurrentAmount workers.
func MacrotrackHandler(runner *job.Runner) rabbitmq.Handler {
	return func(c *rabbitmq.Connection, q string, deliveries <-chan amqp.Delivery) {
		workers := utils.EnvConfig.ConcurrentAmount
		if workers < 1 {
			workers = 1
		}
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for d := range deliveries {
					trackLog.Info(fmt.Sprintf("Queue[%s] 接受資料: %s", q, string(d.Body)), true)
					handleDelivery(runner, q, d)
				}
			}()
		}
		wg.Wait()
	}
}

func handleDelivery(runner *job.Runner, q string, d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			// drop the message so a poisoned job is not redelivered forever
			_ = d.Nack(false, false)
			trackLog.Error(fmt.Sprintf("Queue[%s] worker died: %v", q, r), true)
			crashEmailAlert(fmt.Sprintf("queue %s: %v", q, r))
			os.Exit(1)
		}
	}()

	if err := runner.Handle(context.Background(), q, d.Body); err != nil {
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func crashEmailAlert(reason string) {
	if utils.EnvConfig.Email.APIUrl == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	body := map[string]string{"service": "macrotrack-go-worker", "reason": reason}
	if _, err := services.HttpRequest(ctx, http.MethodPost, utils.EnvConfig.Email.APIUrl, nil, body); err != nil {
		trackLog.Error(fmt.Sprintf("crash alert failed: %s", err.Error()), true)
	}
}

func failOnError(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %s", msg, err)
	}
}

// 塞入執行紀錄的 log table
func insertActivityLog(st store.Store, jobname string, data interface{}) {
	activityLogJSON, _ := json.Marshal(data)
	insertTime := time.Now().In(utils.Location())
	entity := models.ActivityLog{
		CreatedAt:   &insertTime,
		UpdatedAt:   &insertTime,
		LogName:     jobname,
		Description: "golang-worker log",
		Properties:  string(activityLogJSON),
	}
	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(utils.EnvConfig.Store.Timeout, 30*time.Second))
	defer cancel()
	if err := st.InsertActivityLog(ctx, &entity); err != nil {
		trackLog.Error(err.Error(), true)
	}
}
