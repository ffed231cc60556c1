package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SignalAuthorizer 시그널 릴레이 허용 여부 판단.
// 두 사용자 사이에 예정된 미팅이 있을 때만 true를 반환해야 한다.
type SignalAuthorizer func(ctx context.Context, fromUserID, toUserID string) (bool, error)

// Hub WebSocket 연결 관리 및 브로드캐스트
type Hub struct {
	// 사용자별 연결 저장 (userID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	// 브로드캐스트 채널
	broadcast chan *Message

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client

	authorizer SignalAuthorizer
	logger     *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	UserID  string      `json:"-"`       // 수신자 (빈 문자열이면 전체 브로드캐스트)
	Type    string      `json:"type"`    // 메시지 타입
	Payload interface{} `json:"payload"` // 메시지 내용
}

// SignalPayload 허브를 통해 중계되는 WebRTC 시그널링 데이터.
// 허브는 내용을 해석하지 않고 전달만 한다.
type SignalPayload struct {
	From string      `json:"from"`
	Data interface{} `json:"data"`
}

// NewHub Hub 생성
func NewHub() *Hub {
	logger, _ := zap.NewProduction()
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetSignalAuthorizer 시그널 릴레이 인가자 설정
func (h *Hub) SetSignalAuthorizer(authorizer SignalAuthorizer) {
	h.authorizer = authorizer
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 클라이언트 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 기존 연결이 있으면 닫기
	if oldClient, exists := h.clients[client.userID]; exists {
		close(oldClient.send)
		h.logger.Info("Replaced existing WebSocket connection",
			zap.String("userId", client.userID))
	}

	h.clients[client.userID] = client
	h.logger.Info("WebSocket client registered",
		zap.String("userId", client.userID),
		zap.Int("totalClients", len(h.clients)))
}

// unregisterClient 클라이언트 해제
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		h.logger.Info("WebSocket client unregistered",
			zap.String("userId", client.userID),
			zap.Int("totalClients", len(h.clients)))
	}
}

// broadcastMessage 메시지 브로드캐스트
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.UserID == "" {
		// 전체 브로드캐스트
		for _, client := range h.clients {
			select {
			case client.send <- message:
			default:
				// 채널이 가득 찬 경우 연결 해제
				h.logger.Warn("Client send channel full, unregistering",
					zap.String("userId", client.userID))
				go func(c *Client) {
					h.unregister <- c
				}(client)
			}
		}
	} else {
		// 특정 사용자에게만 전송
		if client, exists := h.clients[message.UserID]; exists {
			select {
			case client.send <- message:
			default:
				h.logger.Warn("Client send channel full",
					zap.String("userId", message.UserID))
			}
		}
	}
}

// Send 특정 사용자에게 메시지 전송. service.Notifier 구현.
func (h *Hub) Send(userID string, msgType string, payload interface{}) {
	h.broadcast <- &Message{
		UserID:  userID,
		Type:    msgType,
		Payload: payload,
	}
}

// Broadcast 모든 사용자에게 메시지 전송
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	h.broadcast <- &Message{
		UserID:  "",
		Type:    msgType,
		Payload: payload,
	}
}

// relaySignal 시그널 메시지 중계. 인가자가 거부하면 송신자에게 오류를 돌려준다.
func (h *Hub) relaySignal(fromUserID, toUserID string, data interface{}) {
	if h.authorizer != nil {
		allowed, err := h.authorizer(context.Background(), fromUserID, toUserID)
		if err != nil {
			h.logger.Error("Signal authorization check failed",
				zap.String("from", fromUserID),
				zap.String("to", toUserID),
				zap.Error(err))
			return
		}
		if !allowed {
			h.logger.Warn("Signal relay denied",
				zap.String("from", fromUserID),
				zap.String("to", toUserID))
			h.Send(fromUserID, "signal_denied", map[string]string{"to": toUserID})
			return
		}
	}

	h.Send(toUserID, "signal", SignalPayload{From: fromUserID, Data: data})
}
