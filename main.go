package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/web"
	"github.com/visitlog/visitlog/web/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func loadConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("failed to load .env:", err)
	}
	if err := config.LoadFile(config.GetConfigPath()); err != nil {
		log.Fatal(err)
	}
}

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("reloading on SIGHUP")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			if err := config.LoadFile(config.GetConfigPath()); err != nil {
				logger.Error(err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	db, err := database.InitDB(config.GetDatabaseConfig(), database.SeedOptions{
		AdminUsername: config.GetAdminUsername(),
		AdminPassword: config.GetAdminPassword(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)
	fmt.Println("Migration done!")
}

func resetPassword(username, password string) {
	db, err := database.Open(config.GetDatabaseConfig())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer database.Close(db)

	auth := service.NewAuthService(db, nil)
	if err := auth.ResetPassword(context.Background(), username, password); err != nil {
		fmt.Println("reset password failed:", err)
		return
	}
	fmt.Println("reset password success")
}

func showSetting() {
	dbConfig := config.GetDatabaseConfig()
	fmt.Println("current settings as follows:")
	fmt.Println("listen:", config.GetListen())
	fmt.Println("port:", config.GetPort())
	fmt.Println("basePath:", config.GetBasePath())
	fmt.Println("domain:", config.GetDomain())
	fmt.Println("database:", dbConfig.Type)
	fmt.Println("redis:", redisDescription())
	fmt.Println("accessTokenTTL:", config.GetAccessTokenTTL())
	fmt.Println("refreshTokenTTL:", config.GetRefreshTokenTTL())
	fmt.Println("jwtSecretConfigured:", config.GetJWTSecret() != "")
	fmt.Println("loginAttemptsPerMinute:", config.GetLoginAttemptsPerMinute())
	fmt.Println("auditRetentionDays:", config.GetAuditRetentionDays())
}

func redisDescription() string {
	if addr := config.GetRedisAddr(); addr != "" {
		return addr
	}
	return "embedded"
}

func main() {
	cobra.OnInitialize(loadConfig)

	var rootCmd = &cobra.Command{
		Use:   "visitlog",
		Short: "Lodge visit records REST API",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed reference data",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Manage user accounts",
	}

	var resetPasswordCmd = &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a user",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			resetPassword(username, password)
		},
	}

	resetPasswordCmd.Flags().String("username", "admin", "account to update")
	resetPasswordCmd.Flags().String("password", "", "new password")
	_ = resetPasswordCmd.MarkFlagRequired("password")

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}

	adminCmd.AddCommand(resetPasswordCmd)
	settingCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, adminCmd, settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
