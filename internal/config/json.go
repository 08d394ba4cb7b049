package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	Crypto struct {
		MasterSecret        string   `json:"master_secret"`
		SystemSalt          string   `json:"system_salt"`
		PBKDF2Iterations    int      `json:"pbkdf2_iterations"`
		SymmetricAlgorithm  string   `json:"symmetric_algorithm"`
		AsymmetricAlgorithm string   `json:"asymmetric_algorithm"`
		PBEAlgorithm        string   `json:"pbe_algorithm"`
		HashAlgorithm       string   `json:"hash_algorithm"`
		SessionHashKey      string   `json:"session_hash_key"`
		SessionDuration     Duration `json:"session_duration"`
	} `json:"crypto,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Workers struct {
		SanitizerInterval Duration `json:"sanitizer_interval"`
		SanitizerStartup  bool     `json:"sanitizer_startup"`
		SanityBatchSize   int      `json:"sanity_batch_size"`
		SanityRetention   Duration `json:"sanity_retention"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Crypto: Crypto{
			MasterSecret:        jsonCfg.Crypto.MasterSecret,
			SystemSalt:          jsonCfg.Crypto.SystemSalt,
			PBKDF2Iterations:    jsonCfg.Crypto.PBKDF2Iterations,
			SymmetricAlgorithm:  jsonCfg.Crypto.SymmetricAlgorithm,
			AsymmetricAlgorithm: jsonCfg.Crypto.AsymmetricAlgorithm,
			PBEAlgorithm:        jsonCfg.Crypto.PBEAlgorithm,
			HashAlgorithm:       jsonCfg.Crypto.HashAlgorithm,
			SessionHashKey:      jsonCfg.Crypto.SessionHashKey,
			SessionDuration:     time.Duration(jsonCfg.Crypto.SessionDuration),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Workers: Workers{
			SanitizerInterval: time.Duration(jsonCfg.Workers.SanitizerInterval),
			SanitizerStartup:  jsonCfg.Workers.SanitizerStartup,
			SanityBatchSize:   jsonCfg.Workers.SanityBatchSize,
			SanityRetention:   time.Duration(jsonCfg.Workers.SanityRetention),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
