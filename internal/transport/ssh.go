package transport

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"netpilot/internal/logging"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SSH drives a device CLI over an ssh pty/shell session. A pump goroutine
// moves stdout/stderr bytes into an internal queue so Read can honor the
// blocking/non-blocking switch over plain pipes.
type SSH struct {
	args Args
	log  *zap.Logger

	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser

	data    chan []byte
	readErr chan error
	done    chan struct{}

	mu        sync.Mutex
	blocking  bool
	timeout   time.Duration
	closeOnce sync.Once
}

// NewSSH builds an SSH transport; Open establishes the session.
func NewSSH(args Args) *SSH {
	if args.Port == 0 {
		args.Port = 22
	}
	return &SSH{
		args:     args,
		log:      logging.Session(args.Host, args.Port, args.LoggingID),
		data:     make(chan []byte, 128),
		readErr:  make(chan error, 2),
		done:     make(chan struct{}),
		blocking: true,
	}
}

// Open dials the device, requests a pty and starts the remote shell.
func (t *SSH) Open() error {
	auth, err := t.authMethods()
	if err != nil {
		return err
	}

	clientConfig := &ssh.ClientConfig{
		User:            t.args.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         t.args.Timeout,
		Config: ssh.Config{
			// Network gear frequently still speaks only legacy algorithms.
			KeyExchanges: []string{
				"curve25519-sha256", "ecdh-sha2-nistp256",
				"diffie-hellman-group14-sha256", "diffie-hellman-group14-sha1",
				"diffie-hellman-group-exchange-sha256",
				"diffie-hellman-group-exchange-sha1", "diffie-hellman-group1-sha1",
			},
			Ciphers: []string{
				"aes128-ctr", "aes192-ctr", "aes256-ctr",
				"aes128-gcm@openssh.com", "aes256-gcm@openssh.com",
				"aes128-cbc", "aes256-cbc", "3des-cbc",
			},
		},
	}

	addr := net.JoinHostPort(t.args.Host, fmt.Sprintf("%d", t.args.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to dial SSH: %w", err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	var ptyErr error
	for _, term := range []string{"vt100", "xterm", "dumb"} {
		if ptyErr = session.RequestPty(term, 80, 256, modes); ptyErr == nil {
			break
		}
	}
	if ptyErr != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to request pty: %w", ptyErr)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stdout: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stderr: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to start shell: %w", err)
	}

	t.client = client
	t.session = session
	t.stdin = stdin

	go t.pump(stdout, true)
	go t.pump(stderr, false)

	t.log.Info("SSH session established", zap.String("user", t.args.Username))
	return nil
}

func (t *SSH) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	// Load private key - prefer content over path
	if t.args.PrivateKey != "" || t.args.PrivateKeyPath != "" {
		keyPEM := t.args.PrivateKey
		if keyPEM == "" {
			keyBytes, err := os.ReadFile(t.args.PrivateKeyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read private key: %w", err)
			}
			keyPEM = string(keyBytes)
		}
		signer, err := ssh.ParsePrivateKey([]byte(keyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if t.args.Password != "" {
		password := t.args.Password
		methods = append(methods,
			ssh.Password(password),
			// Many devices only offer keyboard-interactive; answer every
			// prompt with the password.
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("either a password or a private key must be provided")
	}
	return methods, nil
}

// pump moves session output into the read queue until the stream ends or the
// transport is closed.
func (t *SSH) pump(r io.Reader, reportErr bool) {
	buf := make([]byte, 8192)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.data <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			if reportErr {
				t.readErr <- err
			}
			return
		}
	}
}

// Read returns the next available chunk per the current read mode.
func (t *SSH) Read() ([]byte, error) {
	t.mu.Lock()
	blocking := t.blocking
	timeout := t.timeout
	t.mu.Unlock()

	if !blocking {
		select {
		case chunk := <-t.data:
			return chunk, nil
		case err := <-t.readErr:
			return nil, err
		case <-time.After(pollInterval):
			return nil, nil
		}
	}

	if timeout <= 0 {
		timeout = t.args.Timeout
	}
	if timeout <= 0 {
		select {
		case chunk := <-t.data:
			return chunk, nil
		case err := <-t.readErr:
			return nil, err
		}
	}

	select {
	case chunk := <-t.data:
		return chunk, nil
	case err := <-t.readErr:
		return nil, err
	case <-time.After(timeout):
		return nil, ErrReadTimeout
	}
}

// Write sends bytes to the remote shell.
func (t *SSH) Write(b []byte) error {
	if t.stdin == nil {
		return fmt.Errorf("SSH session not established")
	}
	_, err := t.stdin.Write(b)
	return err
}

// SetBlocking switches between blocking and poll read mode.
func (t *SSH) SetBlocking(block bool) error {
	t.mu.Lock()
	t.blocking = block
	t.mu.Unlock()
	return nil
}

// SetTimeout bounds blocking reads; zero restores the dial timeout default.
func (t *SSH) SetTimeout(d time.Duration) {
	t.mu.Lock()
	t.timeout = d
	t.mu.Unlock()
}

// Flush discards bytes already pumped off the session but not yet read.
func (t *SSH) Flush() error {
	for {
		select {
		case <-t.data:
		default:
			return nil
		}
	}
}

// Close tears down the session and connection and releases the reader
// goroutines even when the read queue is full. Safe to call more than once.
func (t *SSH) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	if t.session != nil {
		t.session.Close()
		t.session = nil
	}
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

func (t *SSH) Host() string      { return t.args.Host }
func (t *SSH) Port() int         { return t.args.Port }
func (t *SSH) LoggingID() string { return t.args.LoggingID }

// Fetch copies a remote file to the local machine over SFTP on the already
// established connection. Used after a session to pull artifacts the commands
// produced (saved configs, support bundles).
func (t *SSH) Fetch(remotePath, localPath string) error {
	if t.client == nil {
		return fmt.Errorf("SSH session not established")
	}

	sftpClient, err := sftp.NewClient(t.client)
	if err != nil {
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	remoteFile, err := sftpClient.Open(remotePath)
	if err != nil {
		return fmt.Errorf("failed to open remote file: %w", err)
	}
	defer remoteFile.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}
	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer localFile.Close()

	bytesWritten, err := localFile.ReadFrom(remoteFile)
	if err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	t.log.Info("File fetched over SFTP",
		zap.String("remote_path", remotePath),
		zap.String("local_path", localPath),
		zap.Int64("size_bytes", bytesWritten))
	return nil
}
