package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Verification code lifetimes
const (
	VerifyCodeTTL = 10 * time.Minute
	ResetCodeTTL  = 15 * time.Minute
)

// Conversation history retention in Redis
const ConversationTTL = 48 * time.Hour

// Research pipeline limits
const (
	PipelineStageTimeout = 3 * time.Minute
	TopVideosCount       = 3
	TopShortsCount       = 5
)
