package e2e_test

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"netpilot/internal/channel"
	"netpilot/internal/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeDevice scripts the remote side of a session on top of the in-memory
// transport: it echoes typed input, answers complete lines out of a reply
// table and raises its prompt after every exchange.
type fakeDevice struct {
	mem     *transport.Memory
	prompt  string
	replies map[string]string

	mu      sync.Mutex
	pending []byte
	history []string
}

func attachDevice(mem *transport.Memory, prompt string, replies map[string]string) *fakeDevice {
	d := &fakeDevice{mem: mem, prompt: prompt, replies: replies}
	mem.Handler = func(m *transport.Memory, written []byte) {
		d.handle(written)
	}
	return d
}

func (d *fakeDevice) handle(written []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if string(written) != "\n" {
		d.pending = append(d.pending, written...)
		d.mem.QueueOutput(written)
		return
	}

	line := string(d.pending)
	d.pending = nil
	d.history = append(d.history, line)

	if reply, ok := d.replies[line]; ok {
		d.mem.QueueOutput([]byte(reply))
		return
	}
	if line == "" {
		d.mem.QueueOutput([]byte("\n" + d.prompt))
		return
	}
	d.mem.QueueOutput([]byte("\n% Invalid input detected\n" + d.prompt))
}

func (d *fakeDevice) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}

var _ = Describe("Session E2E", func() {
	var (
		mem *transport.Memory
		ch  *channel.Channel
	)

	newChannel := func(args *channel.Args) {
		if args == nil {
			args = &channel.Args{}
		}
		if args.TimeoutOps == 0 {
			args.TimeoutOps = 2 * time.Second
		}
		args.ChannelLock = true

		var err error
		ch, err = channel.New(mem, args)
		Expect(err).NotTo(HaveOccurred())
		Expect(ch.Open()).To(Succeed())
	}

	BeforeEach(func() {
		mem = transport.NewMemory("router1.example.com")
	})

	AfterEach(func() {
		if ch != nil {
			Expect(ch.Close()).To(Succeed())
			ch = nil
		}
	})

	Context("Prompt discovery", func() {
		It("should find the prompt on a scripted device", func() {
			attachDevice(mem, "router1#", nil)
			newChannel(nil)

			prompt, err := ch.GetPrompt()
			Expect(err).NotTo(HaveOccurred())
			Expect(prompt).To(Equal("router1#"))
		})

		It("should find a prompt preceded by banner noise", func() {
			attachDevice(mem, "router1#", nil)
			mem.QueueOutput([]byte("Last login: never\nMOTD: maintenance window tonight\n"))
			newChannel(nil)

			prompt, err := ch.GetPrompt()
			Expect(err).NotTo(HaveOccurred())
			Expect(prompt).To(Equal("router1#"))
		})
	})

	Context("Command execution", func() {
		It("should run several commands over one session", func() {
			device := attachDevice(mem, "router1#", map[string]string{
				"show version": "\nCisco IOS Software, Version 15.2(4)M7\nrouter1#",
				"show clock":   "\n10:04:01.123 UTC Mon Jan 5 2026\nrouter1#",
			})
			newChannel(nil)

			_, processed, err := ch.SendInput("show version", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(Equal("Cisco IOS Software, Version 15.2(4)M7"))

			_, processed, err = ch.SendInput("show clock", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(Equal("10:04:01.123 UTC Mon Jan 5 2026"))

			Expect(device.commands()).To(Equal([]string{"show version", "show clock"}))
		})

		It("should keep the prompt when stripping is off", func() {
			attachDevice(mem, "router1#", map[string]string{
				"show users": "\nadmin on vty0\nrouter1#",
			})
			newChannel(nil)

			_, processed, err := ch.SendInput("show users", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(HaveSuffix("router1#"))
		})

		It("should survive chunked delivery", func() {
			attachDevice(mem, "router1#", map[string]string{
				"show running-config": "\nhostname router1\ninterface GigabitEthernet0/1\n ip address 10.0.0.1 255.255.255.0\nrouter1#",
			})
			mem.ChunkSize = 5
			newChannel(nil)

			_, processed, err := ch.SendInput("show running-config", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(ContainSubstring("ip address 10.0.0.1"))
		})

		It("should honor a reconfigured prompt pattern", func() {
			attachDevice(mem, "router1(config)#", map[string]string{
				"configure terminal": "\nEnter configuration commands, one per line.\nrouter1(config)#",
			})
			newChannel(nil)

			Expect(ch.SetCommsPromptPattern(`^router1\(config\)#$`)).To(Succeed())

			_, processed, err := ch.SendInput("configure terminal", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(Equal("Enter configuration commands, one per line."))
		})
	})

	Context("Interactive dialogue", func() {
		It("should drive a save-config confirmation", func() {
			attachDevice(mem, "router1#", map[string]string{
				"copy running-config startup-config": "\nDestination filename [startup-config]?",
				"":                                   "\nBuilding configuration...\n[OK]\nrouter1#",
			})
			newChannel(nil)

			stages := []channel.Stage{{
				Input:       "copy running-config startup-config",
				Expectation: "Destination filename [startup-config]?",
			}}

			_, processed, err := ch.SendInputsInteract(stages, channel.DefaultPromptPattern)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(ContainSubstring("[OK]"))
		})
	})

	Context("Authentication", func() {
		It("should complete a telnet login and run a command", func() {
			// The credential phase is a staged script, not the command
			// reply table: prompts arrive in strict order.
			responses := []string{"\nPassword: ", "\nrouter1#"}
			i := 0
			mem.Handler = func(m *transport.Memory, written []byte) {
				if string(written) != "\n" {
					return
				}
				if i < len(responses) {
					m.QueueOutput([]byte(responses[i]))
					i++
				}
			}
			mem.QueueOutput([]byte("Username: "))
			newChannel(nil)

			Expect(ch.AuthenticateTelnet("admin", "hunter2")).To(Succeed())

			attachDevice(mem, "router1#", map[string]string{
				"show privilege": "\nCurrent privilege level is 15\nrouter1#",
			})
			_, processed, err := ch.SendInput("show privilege", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(processed)).To(Equal("Current privilege level is 15"))
		})

		It("should classify a rejected login", func() {
			mem.QueueOutput([]byte("admin@router1.example.com: Permission denied (publickey,password)."))
			newChannel(nil)

			err := ch.AuthenticateSSH("wrong", "")
			Expect(err).To(MatchError(channel.ErrAuthenticationFailed))
			Expect(err.Error()).To(ContainSubstring("Permission denied"))
		})
	})

	Context("Failure handling", func() {
		It("should time out against a silent device and stay usable", func() {
			newChannel(&channel.Args{TimeoutOps: 150 * time.Millisecond})

			_, _, err := ch.SendInput("show version", true)
			Expect(err).To(MatchError(channel.ErrOperationTimeout))

			var timeoutErr *channel.TimeoutError
			Expect(errors.As(err, &timeoutErr)).To(BeTrue())
			Expect(timeoutErr.Op).To(Equal("send input"))

			attachDevice(mem, "router1#", nil)
			prompt, err := ch.GetPrompt()
			Expect(err).NotTo(HaveOccurred())
			Expect(prompt).To(Equal("router1#"))
		})
	})

	Context("Transcript", func() {
		It("should record the whole exchange", func() {
			var transcript bytes.Buffer
			attachDevice(mem, "router1#", map[string]string{
				"show arp": "\nInternet 10.0.0.2 0 aabb.cc00.0100 ARPA\nrouter1#",
			})
			newChannel(&channel.Args{ChannelLog: &transcript})

			_, _, err := ch.SendInput("show arp", true)
			Expect(err).NotTo(HaveOccurred())

			Expect(transcript.String()).To(ContainSubstring("show arp"))
			Expect(transcript.String()).To(ContainSubstring("aabb.cc00.0100"))
		})
	})
})
