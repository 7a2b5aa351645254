package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"resonance_net/internal/model"
	nodeRepo "resonance_net/internal/repository/node"
	"resonance_net/internal/service/redis"
	"resonance_net/internal/utils/log"
)

type (
	HttpServer struct {
		mapper       map[string]*websocket.Conn
		nodeRepo     *nodeRepo.NodeRepo
		redisService *redis.RedisService
	}
)

func NewHttpServer(nodeRepo *nodeRepo.NodeRepo, redisSvc *redis.RedisService) *HttpServer {
	return &HttpServer{
		mapper:       make(map[string]*websocket.Conn),
		nodeRepo:     nodeRepo,
		redisService: redisSvc,
	}
}

func (s *HttpServer) Run(addr string) {
	r := mux.NewRouter()

	r.HandleFunc("/init", s.HandleInitWS()).Methods(http.MethodGet)
	r.HandleFunc("/nodes/{name}", s.GetNodeCard()).Methods(http.MethodGet)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("relay listen failed", zap.String("addr", addr), zap.Error(err))
	}
}

func (s *HttpServer) HandleInitWS() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		nodeID := r.URL.Query().Get("nodeID")
		if nodeID == "" {
			http.Error(w, "nodeID cannot be empty", http.StatusBadRequest)
			return
		}

		if _, ok := s.mapper[nodeID]; ok {
			http.Error(w, "duplicated nodeID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		s.mapper[nodeID] = conn
		go s.processWSMessage(nodeID, conn)
		if err := s.ForwardQueuedEnvelopes(nodeID); err != nil {
			log.Error("forward queued envelopes failed", zap.Error(err))
		}
	}
}

func (s *HttpServer) processWSMessage(nodeID string, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("node web socket closed", zap.String("node", nodeID), zap.Error(err))
			delete(s.mapper, nodeID)
			conn.Close()
			break
		}

		var message model.Message
		if err := json.Unmarshal(data, &message); err != nil {
			log.Error("unmarshal envelope failed", zap.Error(err))
			continue
		}

		if conn, ok := s.mapper[message.To]; ok {
			conn.WriteMessage(websocket.TextMessage, data)
		} else {
			if err := s.QueueEnvelopes(context.TODO(), message.To, []*model.Message{&message}); err != nil {
				log.Error("queue envelope failed", zap.Error(err))
			}
		}
	}
}

func (s *HttpServer) GetNodeCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		vars := mux.Vars(r)
		name := vars["name"]
		log.Info("GetNodeCard: ", zap.String("name", name))

		node, err := s.nodeRepo.GetByName(ctx, name)
		if err != nil {
			log.Error("get node card failed", zap.Error(err))
			http.Error(w, "get node card failed", http.StatusInternalServerError)
			return
		}

		if node == nil {
			http.Error(w, "node does not exist", http.StatusBadRequest)
			return
		}

		data, err := json.Marshal(node.Card())
		if err != nil {
			log.Error("get node card failed", zap.Error(err))
			http.Error(w, "get node card failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func (s *HttpServer) ForwardQueuedEnvelopes(nodeID string) error {
	messages, err := s.DrainQueuedEnvelopes(context.TODO(), nodeID)
	if err != nil {
		return err
	}

	for _, message := range messages {
		s.mapper[nodeID].WriteJSON(&message)
	}
	return nil
}
