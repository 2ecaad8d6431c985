package util

import (
	"encoding/json"
	"fmt"
	"net/http"

	"shop-assistant/internal/app/models"
)

// WriteSSE 输出一条扁平化事件: data 的字段与 type 合并在同一个对象里
func WriteSSE(w http.ResponseWriter, eventType string, data interface{}) error {
	var event map[string]interface{}

	switch v := data.(type) {
	case models.PhaseEvent:
		event = map[string]interface{}{
			"type":  eventType,
			"phase": v.Phase,
		}
	case models.WarningEvent:
		event = map[string]interface{}{
			"type":    eventType,
			"message": v.Message,
		}
	case models.MessageEvent:
		event = map[string]interface{}{
			"type":    eventType,
			"index":   v.Index,
			"message": v.Message,
		}
	case models.ErrorEvent:
		event = map[string]interface{}{
			"type":       eventType,
			"code":       v.Code,
			"message":    v.Message,
			"request_id": v.RequestID,
		}
	default:
		if m, ok := data.(map[string]interface{}); ok {
			m["type"] = eventType
			event = m
		} else {
			return fmt.Errorf("unsupported event data type: %T", data)
		}
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "data: %s\n\n", bytes)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func WritePhase(w http.ResponseWriter, phase string) error {
	return WriteSSE(w, "phase", models.PhaseEvent{Phase: phase})
}

func WriteWarning(w http.ResponseWriter, message string) error {
	return WriteSSE(w, "warning", models.WarningEvent{Message: message})
}

func WriteMessage(w http.ResponseWriter, index int, message models.Message) error {
	return WriteSSE(w, "message", models.MessageEvent{Index: index, Message: message})
}

func WriteError(w http.ResponseWriter, event models.ErrorEvent) error {
	return WriteSSE(w, "error", event)
}

func WriteDone(w http.ResponseWriter) {
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
