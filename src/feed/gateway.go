package feed

import (
	"context"

	"github.com/stake-plus/middlefinger/src/contract"
	"github.com/stake-plus/middlefinger/src/types"
	"github.com/stake-plus/middlefinger/src/wallet"
)

// Canceler is an active event subscription.
type Canceler interface {
	Cancel()
}

// Gateway is the contract surface the controller drives.
type Gateway interface {
	Submit(ctx context.Context, message string) error
	ListAll(ctx context.Context) ([]types.Submission, error)
	Watch(ctx context.Context, handler contract.Handler) (Canceler, error)
}

// GatewayFactory builds a gateway once a wallet is known to be present.
type GatewayFactory func(session *wallet.Session) (Gateway, error)

type contractGateway struct {
	*contract.Gateway
}

// FromContract adapts a contract gateway to the controller's Gateway.
func FromContract(g *contract.Gateway) Gateway {
	return contractGateway{Gateway: g}
}

func (g contractGateway) Watch(ctx context.Context, handler contract.Handler) (Canceler, error) {
	sub, err := g.Subscribe(ctx, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
