package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN     string
	RedisURL     string
	RPCURL       string
	IPFSGateway  string
	Port         string
	PollInterval int
	FetchTimeout int
	FetchRetries int
	StartHeight  uint64
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	pi, _ := strconv.Atoi(getenv("POLL_INTERVAL", "6"))
	ft, _ := strconv.Atoi(getenv("FETCH_TIMEOUT", "10"))
	fr, _ := strconv.Atoi(getenv("FETCH_RETRIES", "2"))
	sh, _ := strconv.ParseUint(getenv("START_HEIGHT", "0"), 10, 64)
	return Config{
		MySQLDSN:     getenv("MYSQL_DSN", "dev:test@tcp(localhost:3306)/daoportal?parseTime=true"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		RPCURL:       getenv("RPC_URL", "wss://rpc.finitestate.io"),
		IPFSGateway:  getenv("IPFS_GATEWAY", "https://ipfs.io/ipfs"),
		Port:         getenv("PORT", "8080"),
		PollInterval: pi,
		FetchTimeout: ft,
		FetchRetries: fr,
		StartHeight:  sh,
	}
}
