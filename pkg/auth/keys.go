package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// KeySource fornece o segredo HMAC usado para validar tokens.
type KeySource interface {
	Get() (string, error)
}

// StaticKey é um segredo fixo vindo da configuração.
type StaticKey string

func (k StaticKey) Get() (string, error) {
	if k == "" {
		return "", fmt.Errorf("segredo JWT não configurado")
	}
	return string(k), nil
}

// KeyFetcher busca o segredo atual e por quanto tempo ele vale.
type KeyFetcher func(ctx context.Context) (string, time.Duration, error)

// KeyManager mantém o segredo em memória e o renova em background,
// permitindo rotação sem reiniciar o serviço.
type KeyManager struct {
	key         string
	mu          sync.RWMutex
	fetcher     KeyFetcher
	stopChan    chan struct{}
	stopOnce    sync.Once
	initialized bool
	fallback    time.Duration
}

// NewKeyManager cria um gerenciador com o fetcher informado.
func NewKeyManager(fetcher KeyFetcher) *KeyManager {
	return &KeyManager{
		fetcher:  fetcher,
		stopChan: make(chan struct{}),
		fallback: 5 * time.Minute,
	}
}

// Start faz a busca inicial e inicia o loop de renovação.
func (m *KeyManager) Start(ctx context.Context) error {
	key, ttl, err := m.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("falha inicial ao obter segredo JWT: %w", err)
	}

	m.mu.Lock()
	m.key = key
	m.initialized = true
	m.mu.Unlock()

	go m.refreshLoop(ctx, ttl)
	return nil
}

// Get retorna o segredo atual de forma segura.
func (m *KeyManager) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return "", fmt.Errorf("key manager não inicializado")
	}
	return m.key, nil
}

// Stop encerra o processo de renovação.
func (m *KeyManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *KeyManager) refreshLoop(ctx context.Context, initialTTL time.Duration) {
	timer := time.NewTimer(m.calculateWait(initialTTL))
	defer timer.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			wait := 10 * time.Second
			if key, ttl, err := m.fetcher(ctx); err == nil {
				m.mu.Lock()
				m.key = key
				m.mu.Unlock()
				wait = m.calculateWait(ttl)
			}
			timer.Reset(wait)
		}
	}
}

// calculateWait renova quando passar 80% do tempo de vida.
func (m *KeyManager) calculateWait(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return m.fallback
	}
	return time.Duration(float64(ttl) * 0.8)
}
