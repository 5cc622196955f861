// Package main implements the Blue Tetris multiplayer server.
//
// Architecture Overview:
//   - A single TCP listener accepts connections on BT_PORT (58813).
//   - Each connection gets a Session: one read goroutine, one send goroutine,
//     framed with the BlueTetris terminator instead of WebSocket framing.
//   - Every Session's read loop only ever enqueues into the Dispatcher; the
//     Dispatcher's single consumer goroutine is the only thing allowed to
//     mutate the Room, so Room needs no lock-per-operation of its own.
//   - The server hosts exactly one fixed, four-seat Room. There is no
//     matchmaking across rooms.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/bluetetris/server/config"
	"github.com/bluetetris/server/internal/cli"
	"github.com/bluetetris/server/internal/dispatcher"
	"github.com/bluetetris/server/internal/room"
	"github.com/bluetetris/server/internal/scorestore"
	"github.com/bluetetris/server/internal/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()
	runID := uuid.New()

	screen, mode, err := cli.Prompt()
	if err != nil {
		log.Fatalf("terminal init failed: %v", err)
	}
	defer screen.Fini()

	if mode == cli.ModeDatabase && cfg.ScoreDBURL == "" {
		log.Printf("database mode selected but SCORE_DB_URL is unset; falling back to local file storage")
	}
	if mode == cli.ModeLocal {
		cfg.ScoreDBURL = ""
	}

	scores, err := scorestore.NewStore(cfg.ScoreDBURL, cfg.ScoreFilePath)
	if err != nil {
		log.Fatalf("score store init failed: %v", err)
	}

	r := room.New(scores)
	d := dispatcher.New(r)
	go d.Run()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", addr, err)
	}
	defer ln.Close()

	log.Printf("=================================")
	log.Printf("  Blue Tetris Server")
	log.Printf("=================================")
	log.Printf("  Run ID: %s", runID)
	log.Printf("  Listening on: %s", addr)
	log.Printf("  Score backend: %s", scoreBackendName(cfg))
	log.Printf("  Press Escape to shut down")
	log.Printf("=================================")

	shutdown := cli.WatchShutdown(screen)
	serve(ln, d, shutdown)
	d.Stop()
	log.Printf("server stopped")
}

// loadConfig reads configuration from environment variables, falling back
// to DefaultServerConfig for anything unset.
func loadConfig() *config.ServerConfig {
	cfg := config.DefaultServerConfig()

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if dbURL := os.Getenv("SCORE_DB_URL"); dbURL != "" {
		cfg.ScoreDBURL = dbURL
	}
	if path := os.Getenv("SCORE_FILE_PATH"); path != "" {
		cfg.ScoreFilePath = path
	}

	return cfg
}

func scoreBackendName(cfg *config.ServerConfig) string {
	if cfg.ScoreDBURL != "" {
		return "database"
	}
	return "local file (" + cfg.ScoreFilePath + ")"
}

// serve runs the accept loop, seating every connection in the room before
// handing it its own Session, until shutdown fires or the listener errors.
// A shutdown signal closes the listener, which unblocks the pending Accept
// with an error so the loop can exit cleanly.
func serve(ln net.Listener, d *dispatcher.Dispatcher, shutdown <-chan struct{}) {
	go func() {
		<-shutdown
		log.Printf("shutdown requested, closing listener")
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-shutdown:
				log.Printf("listener closed for shutdown")
			default:
				log.Printf("accept error: %v", err)
			}
			return
		}
		log.Printf("new connection from %s", conn.RemoteAddr())

		s := session.New(conn, d)
		if _, ok := d.Admit(s); !ok {
			log.Printf("room full, rejecting connection from %s", conn.RemoteAddr())
			s.Close()
			continue
		}
		go s.Serve()
	}
}
