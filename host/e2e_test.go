package host_test

import (
	"context"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yllada/deskshell/bridge"
	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/host"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/logsink"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/window"
)

var _ = Describe("Surface lifecycle", func() {
	var (
		h      *host.Host
		system *window.HeadlessSystem
		native *theme.StaticTheme
		peers  chan *ipc.Conn
		sink   *logsink.Sink
	)

	BeforeEach(func() {
		system = window.NewHeadlessSystem()
		native = theme.NewStaticTheme(false)
		peers = make(chan *ipc.Conn, 8)
		sink = logsink.New(logsink.Config{Dir: GinkgoT().TempDir(), Console: io.Discard})
		h = host.New(host.Options{
			Sink:   sink,
			System: system,
			Loader: &window.PipeLoader{Attach: func(_ string, conn *ipc.Conn) { peers <- conn }},
			Theme:  native,
		})
	})

	AfterEach(func() {
		h.Windows().CloseAll()
		h.Close()
		Expect(sink.Close()).To(Succeed())
	})

	open := func(name window.Name, size window.SizeSpec) (*window.Surface, *bridge.Bridge) {
		s, err := h.Windows().Create(context.Background(), name, size)
		Expect(err).NotTo(HaveOccurred())
		var conn *ipc.Conn
		Eventually(peers).Should(Receive(&conn))
		return s, bridge.New(conn)
	}

	It("creates, closes from the surface, and stops answering that surface", func() {
		By("Creating the main surface")
		s, b := open(window.NameMain, window.SizeSpec{Width: 1024, Height: 800})
		Expect(s.State()).To(Equal(window.StateLive))
		Expect(system.Last().Options().Size.Width).To(Equal(1024))
		Expect(system.Last().Options().Size.Height).To(Equal(800))

		By("Sending close-window from that surface")
		Expect(b.CloseWindow()).To(Succeed())
		Eventually(s.State).Should(Equal(window.StateDestroyed))
		Expect(system.Last().Closed()).To(BeTrue())
		Expect(system.Last().Listeners()).To(BeZero())

		By("Asking whether the gone surface is maximized")
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, err := b.IsWindowMaximized(ctx)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, common.ErrChannelClosed) || errors.Is(err, context.DeadlineExceeded)).To(BeTrue())

		By("Closing it again")
		h.Windows().Close(s)
		Expect(s.State()).To(Equal(window.StateDestroyed))
	})

	It("answers window requests from native state", func() {
		_, b := open(window.NameMain, window.DefaultSize(window.NameMain))

		maximized, err := b.IsWindowMaximized(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(maximized).To(BeFalse())

		Expect(b.MaximizeWindow()).To(Succeed())
		Eventually(func() bool {
			m, _ := b.IsWindowMaximized(context.Background())
			return m
		}).Should(BeTrue())

		Expect(b.MinimizeWindow()).To(Succeed())
		Eventually(system.Last().Minimized).Should(BeTrue())
	})

	It("routes commands to the sending surface only", func() {
		_, mainBridge := open(window.NameMain, window.DefaultSize(window.NameMain))
		mainWindow := system.Last()
		_, dialogBridge := open(window.NameDialog, window.DefaultSize(window.NameDialog))
		dialogWindow := system.Last()

		Expect(dialogBridge.MaximizeWindow()).To(Succeed())
		Eventually(dialogWindow.IsMaximized).Should(BeTrue())
		Consistently(mainWindow.IsMaximized, 100*time.Millisecond).Should(BeFalse())

		_, err := mainBridge.IsDarkTheme(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	It("broadcasts theme changes to every live surface and never to a destroyed one", func() {
		_, mainBridge := open(window.NameMain, window.DefaultSize(window.NameMain))
		settings, settingsBridge := open(window.NameSettings, window.DefaultSize(window.NameSettings))
		dialog, dialogBridge := open(window.NameDialog, window.DefaultSize(window.NameDialog))

		mainUpdates := make(chan bool, 4)
		settingsUpdates := make(chan bool, 4)
		dialogUpdates := make(chan bool, 4)
		mainBridge.OnThemeUpdated(func(v bool) { mainUpdates <- v })
		settingsBridge.OnThemeUpdated(func(v bool) { settingsUpdates <- v })
		dialogBridge.OnThemeUpdated(func(v bool) { dialogUpdates <- v })

		h.Windows().Close(dialog)
		Expect(dialog.State()).To(Equal(window.StateDestroyed))

		By("Setting dark mode from the settings surface")
		isDark, err := settingsBridge.SetThemeMode(context.Background(), "dark")
		Expect(err).NotTo(HaveOccurred())
		Expect(isDark).To(BeTrue())

		Eventually(mainUpdates).Should(Receive(BeTrue()))
		Eventually(settingsUpdates).Should(Receive(BeTrue()))
		Consistently(dialogUpdates, 100*time.Millisecond).ShouldNot(Receive())

		mode, err := mainBridge.GetThemeMode(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(mode).To(Equal("dark"))
		Expect(settings.Live()).To(BeTrue())
	})

	It("follows the OS preference in system mode", func() {
		_, b := open(window.NameMain, window.DefaultSize(window.NameMain))
		updates := make(chan bool, 4)
		b.OnThemeUpdated(func(v bool) { updates <- v })

		native.SetSystemDark(true)
		Eventually(updates).Should(Receive(BeTrue()))

		isDark, err := b.IsDarkTheme(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(isDark).To(BeTrue())
	})

	It("tells a surface once whether it can maximize after a resize burst", func() {
		_, b := open(window.NameMain, window.DefaultSize(window.NameMain))
		states := make(chan bool, 16)
		b.OnMaximizeState(func(v bool) { states <- v })

		w := system.Last()
		for i := 0; i < 10; i++ {
			w.Resize(900+i, 700)
			time.Sleep(2 * time.Millisecond)
		}

		Eventually(states).Should(Receive(BeTrue()))
		Consistently(states, 3*common.ResizeDebounce).ShouldNot(Receive())
	})
})
