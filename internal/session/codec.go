package session

import (
	"encoding/json"
	"fmt"

	"github.com/Dan9191/mortgage-service/internal/models"
)

func encode(cfg models.LoanConfiguration) ([]byte, error) {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return blob, nil
}

func decode(blob []byte) (models.LoanConfiguration, error) {
	var cfg models.LoanConfiguration
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return models.LoanConfiguration{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return cfg, nil
}
