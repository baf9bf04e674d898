package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/session"
	"github.com/desertthunder/zenithx/internal/shared"
)

const (
	defaultBinary       = "mpv"
	defaultSocket       = "/tmp/zenithx-mpv.sock"
	socketCheckRetries  = 30
	socketCheckInterval = 100 * time.Millisecond
	commandTimeout      = 3 * time.Second
	pauseObserverID     = 1
)

// Options configures a [Player].
type Options struct {
	Binary string // mpv executable, default "mpv"
	Socket string // IPC socket path
	Logger *log.Logger
}

type command struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type message struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int64  `json:"request_id"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// Player implements [session.Player] with one persistent IPC connection.
//
// Responses are matched to commands by request id; events and property changes are turned into status updates.
type Player struct {
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	conn    net.Conn
	nextID  int64
	pending map[int64]chan message
	status  session.Status
	loaded  bool
	paused  bool

	writeMu sync.Mutex
	events  chan session.Status
}

var _ session.Player = (*Player)(nil)

// New creates a player. The mpv process starts on the first [Player.Load] or an explicit [Player.Start].
func New(opts Options) *Player {
	if opts.Binary == "" {
		opts.Binary = defaultBinary
	}
	if opts.Socket == "" {
		opts.Socket = defaultSocket
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Player{
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "mpv"),
		pending: make(map[int64]chan message),
		events:  make(chan session.Status, 16),
	}
}

// Start launches mpv in idle mode and connects to its socket. It is a no-op when already connected.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.conn != nil {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	os.Remove(p.opts.Socket)
	cmd := exec.CommandContext(ctx, p.opts.Binary,
		"--idle",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+p.opts.Socket,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: could not start %s: %v", shared.ErrPlayerUnavailable, p.opts.Binary, err)
	}

	var conn net.Conn
	var err error
	for range socketCheckRetries {
		if conn, err = net.Dial("unix", p.opts.Socket); err == nil {
			break
		}
		time.Sleep(socketCheckInterval)
	}
	if conn == nil {
		cmd.Process.Kill()
		return fmt.Errorf("%w: mpv socket did not appear at %s: %v", shared.ErrPlayerUnavailable, p.opts.Socket, err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	p.logger.Info("mpv started", "socket", p.opts.Socket, "pid", cmd.Process.Pid)
	return p.Attach(conn)
}

// Attach uses an already open IPC connection.
func (p *Player) Attach(conn net.Conn) error {
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()

	go p.read(conn)

	_, err := p.send("observe_property", pauseObserverID, "pause")
	return err
}

// Load plays the video with id, starting mpv if needed.
func (p *Player) Load(videoID string) error {
	if err := p.Start(context.Background()); err != nil {
		return err
	}
	url := models.Track{ID: videoID}.WatchURL()
	if _, err := p.send("loadfile", url, "replace"); err != nil {
		return err
	}
	p.mu.Lock()
	p.loaded = true
	p.mu.Unlock()
	_, err := p.send("set_property", "pause", false)
	return err
}

// Play resumes playback.
func (p *Player) Play() error {
	_, err := p.send("set_property", "pause", false)
	return err
}

// Pause pauses playback.
func (p *Player) Pause() error {
	_, err := p.send("set_property", "pause", true)
	return err
}

// Stop unloads the current file and leaves mpv idle.
func (p *Player) Stop() error {
	_, err := p.send("stop")
	return err
}

// Seek jumps to fraction of the duration.
func (p *Player) Seek(fraction float64) error {
	fraction = min(max(fraction, 0), 1)
	_, err := p.send("seek", fraction*100, "absolute-percent")
	return err
}

// Elapsed returns the playback position.
func (p *Player) Elapsed() (time.Duration, error) {
	return p.seconds("time-pos")
}

// Duration returns the length of the current file.
func (p *Player) Duration() (time.Duration, error) {
	return p.seconds("duration")
}

// Status returns the last status derived from mpv events.
func (p *Player) Status() session.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Events delivers status changes. Updates are dropped when nobody reads them.
func (p *Player) Events() <-chan session.Status {
	return p.events
}

// Close disconnects, stops the mpv process and removes the socket.
func (p *Player) Close() error {
	p.mu.Lock()
	conn, cmd := p.conn, p.cmd
	p.conn, p.cmd = nil, nil
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			p.logger.Warn("failed to stop mpv", "error", err)
		}
		cmd.Wait()
		os.Remove(p.opts.Socket)
	}
	return nil
}

func (p *Player) seconds(property string) (time.Duration, error) {
	data, err := p.send("get_property", property)
	if err != nil {
		return 0, err
	}
	v, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected %s value %v", shared.ErrPlayerUnavailable, property, data)
	}
	return time.Duration(v * float64(time.Second)), nil
}

// send writes one command and waits for its response.
func (p *Player) send(args ...any) (any, error) {
	p.mu.Lock()
	conn := p.conn
	if conn == nil {
		p.mu.Unlock()
		return nil, shared.ErrPlayerUnavailable
	}
	p.nextID++
	id := p.nextID
	reply := make(chan message, 1)
	p.pending[id] = reply
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	p.writeMu.Lock()
	err := json.NewEncoder(conn).Encode(command{Command: args, RequestID: id})
	p.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayerUnavailable, err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, shared.ErrPlayerUnavailable
		}
		if msg.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-time.After(commandTimeout):
		return nil, fmt.Errorf("%w: mpv %v timed out", shared.ErrTimeout, args[0])
	}
}

func (p *Player) read(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			p.logger.Warn("could not parse mpv message", "line", scanner.Text(), "error", err)
			continue
		}
		if msg.Event != "" {
			p.handleEvent(msg)
			continue
		}

		p.mu.Lock()
		reply, ok := p.pending[msg.RequestID]
		p.mu.Unlock()
		if ok {
			reply <- msg
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		p.logger.Warn("mpv connection lost", "error", err)
	}

	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	for id, reply := range p.pending {
		close(reply)
		delete(p.pending, id)
	}
	p.mu.Unlock()
}

func (p *Player) handleEvent(msg message) {
	p.mu.Lock()
	var next session.Status
	switch msg.Event {
	case "property-change":
		if msg.Name != "pause" {
			p.mu.Unlock()
			return
		}
		p.paused, _ = msg.Data.(bool)
		if !p.loaded {
			p.mu.Unlock()
			return
		}
		next = session.StatusPlaying
		if p.paused {
			next = session.StatusPaused
		}
	case "file-loaded", "playback-restart":
		p.loaded = true
		next = session.StatusPlaying
		if p.paused {
			next = session.StatusPaused
		}
	case "end-file":
		p.loaded = false
		switch msg.Reason {
		case "eof":
			next = session.StatusEnded
		case "error":
			p.logger.Warn("mpv could not play file")
			next = session.StatusEnded
		default:
			next = session.StatusIdle
		}
	default:
		p.mu.Unlock()
		return
	}

	changed := next != p.status
	p.status = next
	p.mu.Unlock()

	if !changed {
		return
	}
	p.logger.Debug("status", "status", next, "event", msg.Event)
	select {
	case p.events <- next:
	default:
	}
}
