package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"resonance_net/internal/model"
	"resonance_net/internal/protocol/channel"
	"resonance_net/internal/protocol/prke"
	nodeRepo "resonance_net/internal/repository/node"
	"resonance_net/internal/service/redis"
	"resonance_net/internal/utils/log"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		redisService *redis.RedisService

		nodeRepo *nodeRepo.NodeRepo
		node     *model.Node

		protocol *prke.Protocol
		state    *channel.State

		peerName string
		cards    map[string]*model.NodeCard

		// Control envelope IDs already handled; the relay may redeliver.
		seen map[string]struct{}

		conn *websocket.Conn

		// Serializes channel state and socket writes; the input handler and
		// the receive loop run on separate goroutines.
		mu sync.Mutex
	}
)

func NewApp(nodeRepo *nodeRepo.NodeRepo, redis *redis.RedisService) *App {
	return &App{
		app:          tview.NewApplication(),
		nodeRepo:     nodeRepo,
		redisService: redis,
		protocol:     prke.New(),
		cards:        make(map[string]*model.NodeCard),
		seen:         make(map[string]struct{}),
	}
}

func (c *App) Run(ctx context.Context, name string) {
	node, err := c.getNodeAndCreateIfNotExist(ctx, name)
	if err != nil {
		log.Fatal("get node identity failed", zap.Error(err))
	}
	c.node = node

	var peerName string
	fmt.Print("Enter peer's name: ")
	_, err = fmt.Scan(&peerName) // reads until whitespace
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	c.peerName = peerName

	card, err := c.getNodeCard(peerName)
	if err != nil {
		log.Fatal("cannot fetch peer card", zap.Error(err))
	}
	c.cards[peerName] = card

	c.conn, err = c.initWebhook(c.node.Name)
	if err != nil {
		log.Fatal("init webhook to server failed", zap.Error(err))
	}

	// A cached channel survives restarts; only handshake when there is none.
	state, err := c.GetState(ctx, c.node.Name, c.peerName)
	if err != nil {
		log.Error("restore channel state failed", zap.Error(err))
	}
	c.state = state

	go c.listenOnWebhook()

	if c.state == nil {
		if err := c.sendExchangeTo(peerName, "", false); err != nil {
			log.Fatal("send exchange failed", zap.Error(err))
		}
	}

	c.renderUI()
}

func (c *App) Stop() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == nil {
		return
	}
	if err := c.SaveState(context.TODO(), c.node.Name, c.peerName, state); err != nil {
		log.Error("save channel state failed", zap.Error(err))
	}
}

func (c *App) chatTitle() string {
	if s, ok := c.protocol.Session(c.node.Name, c.peerName); ok {
		if _, established := s.SessionKey(); established {
			return fmt.Sprintf(" Resonance with %s (entanglement %.3f) ", c.peerName, s.Entanglement())
		}
	}
	return fmt.Sprintf(" Resonance with %s ", c.peerName)
}

// blocking function
func (c *App) renderUI() {
	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.chatbox.SetBorder(true).SetTitle(c.chatTitle())

	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := c.input.GetText()
			if text == "" {
				return
			}
			go c.handleInput(text)
		}
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	if err := c.app.SetRoot(layout, true).SetFocus(c.input).Run(); err != nil {
		log.Fatal("cannot init app", zap.Error(err))
	}
}

// handleInput routes a line of input: "/refresh" rotates the session key,
// "/space a,b" opens a multi-party resonance space, anything else is sent as
// a chat message.
func (c *App) handleInput(text string) {
	if !strings.HasPrefix(text, "/") {
		if err := c.SendMessage(text); err != nil {
			c.app.Suspend(func() {
				log.Error("Send message failed", zap.Error(err))
			})
		}
		return
	}

	c.app.QueueUpdateDraw(func() {
		c.input.SetText("")
	})

	var err error
	switch {
	case text == "/refresh":
		err = c.triggerRefresh()
	case strings.HasPrefix(text, "/space "):
		err = c.establishSpace(strings.TrimPrefix(text, "/space "))
	default:
		err = fmt.Errorf("unknown command %q", text)
	}
	if err != nil {
		c.notice(fmt.Sprintf("command failed: %v", err))
	}
}

// notice prints a system line into the chatbox.
func (c *App) notice(text string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, "[gray]%s[-]\n", text)
		c.chatbox.ScrollToEnd()
	})
}

func (c *App) listenOnWebhook() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("node web socket closed", zap.Error(err))
			c.conn.Close()
			break
		}

		var message model.Message
		err = json.Unmarshal(data, &message)
		if err != nil {
			log.Error("Unmarshal envelope failed", zap.Error(err))
			continue
		}

		if err := c.dispatch(&message); err != nil {
			c.app.Suspend(func() {
				log.Error("handle envelope failed", zap.String("kind", message.Kind), zap.Error(err))
			})
		}
	}
}

func (c *App) dispatch(message *model.Message) error {
	switch message.Kind {
	case model.KindExchange, model.KindRefresh:
		if message.ID != "" {
			if _, dup := c.seen[message.ID]; dup {
				return nil
			}
			c.seen[message.ID] = struct{}{}
		}
		if message.Kind == model.KindExchange {
			return c.handleExchange(message)
		}
		return c.handleRefresh(message)
	case model.KindChat:
		return c.ReceiveMessage(message)
	default:
		return fmt.Errorf("unknown envelope kind %q", message.Kind)
	}
}

func (c *App) writeEnvelope(message *model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *App) SendMessage(msg string) error {
	c.mu.Lock()
	if c.state == nil {
		c.mu.Unlock()
		return errors.New("no secure channel yet, wait for the exchange to complete")
	}

	hdr, ciphertext, err := c.state.Seal([]byte(msg))
	if err != nil {
		c.mu.Unlock()
		return err
	}

	err = c.conn.WriteJSON(&model.Message{
		ID:         uuid.NewString(),
		Kind:       model.KindChat,
		From:       c.node.Name,
		To:         c.peerName,
		Header:     hdr,
		Ciphertext: ciphertext,
	})
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, "[yellow]You:[-] %s\n", msg)
		c.input.SetText("")
		c.chatbox.ScrollToEnd()
	})
	return nil
}

func (c *App) ReceiveMessage(message *model.Message) error {
	if message.Header == nil {
		return errors.New("chat envelope missing header")
	}

	c.mu.Lock()
	if c.state == nil {
		state, err := c.GetState(context.TODO(), c.node.Name, c.peerName)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if state == nil {
			c.mu.Unlock()
			return errors.New("no secure channel for incoming message")
		}
		c.state = state
	}

	msgBytes, err := c.state.Open(*message.Header, message.Ciphertext)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, ("[green]%s:[-] %s\n"), message.From, string(msgBytes))
		c.chatbox.ScrollToEnd()
	})
	return nil
}
