// Package util : общие помощники логирования и HTTP-ответов об ошибках.
package util

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// LogError пишет ошибку в лог и возвращает ее обернутой тем же текстом,
// чтобы вызывающий мог отдать ее наверх без повторного логирования
func LogError(message string, err error) error {
	wrapped := fmt.Errorf("%s: %w", message, err)
	log.Println(wrapped)
	return wrapped
}

// HandleError отвечает клиенту JSON-описанием ошибки с заданным статусом
func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := map[string]interface{}{
		"error":   http.StatusText(statusCode),
		"message": message,
		"code":    statusCode,
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("не удалось записать ответ об ошибке: %v", err)
	}
}
