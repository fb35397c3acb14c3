package response

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// FormatDuration renders fractional hours as "8h 30m".
func FormatDuration(hours float64) string {
	if hours <= 0 {
		return "0h 0m"
	}
	h := int(hours)
	m := int(math.Floor((hours - float64(h)) * 60))
	return fmt.Sprintf("%dh %dm", h, m)
}
