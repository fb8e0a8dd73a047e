package check

import (
	"encoding/json"
	"fmt"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/services/rabbitmq"
	"macrotrack-go-worker/services/trackLog"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type AliveResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Info    CheckInfo `json:"info"`
}

type CheckInfo struct {
	Queues     []string `json:"queue"`
	RoutineNum int      `json:"routine_num"`
}

// CheckAlive reports the broker connection and queue state. Reconnecting is
// left to the consumer's supervisor.
func CheckAlive(c *gin.Context) {
	rabbitConn := rabbitmq.GetConnection(enums.ConnectionName)
	resMsg := "main thread alive"
	checkInfo := CheckInfo{}
	//檢查mq實體是否在連線池
	if rabbitConn == nil {
		resMsg = "Get connection pool fail"
		trackLog.Error(resMsg, false)
		c.JSON(http.StatusOK, AliveResponse{Success: true, Message: resMsg, Info: withRoutines(checkInfo)})
		return
	}

	if !rabbitConn.IsConnected() {
		resMsg = "Api detect Connection lost, waiting for reconnect.."
		trackLog.Error(resMsg, false)
	} else {
		queues, err := rabbitConn.Inspect()
		if err != nil {
			resMsg = err.Error()
			trackLog.Error(resMsg, false)
		}
		names := make([]string, 0, len(queues))
		for name := range queues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			// queue的狀態
			queueJson, _ := json.Marshal(queues[name])
			checkInfo.Queues = append(checkInfo.Queues, string(queueJson))
			trackLog.Info(fmt.Sprintf("Queue[%s]: %s", name, queueJson), false)
		}
	}

	// 花1秒檢查是否斷線
	select {
	case err := <-rabbitConn.ApiErr:
		resMsg = fmt.Sprintf("api error: %s", err.Error())
		trackLog.Error(resMsg, false)
	case <-time.After(time.Second):
	}

	c.JSON(http.StatusOK, AliveResponse{Success: true, Message: resMsg, Info: withRoutines(checkInfo)})
}

func withRoutines(info CheckInfo) CheckInfo {
	info.RoutineNum = runtime.NumGoroutine()
	trackLog.Info(fmt.Sprintf("goroutine number: %d", info.RoutineNum), false)
	return info
}
