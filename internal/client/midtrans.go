package client

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/example/cafe-storefront/internal/checkout"
	"github.com/example/cafe-storefront/internal/domain/order"
)

// MidtransGateway starts Midtrans Snap transactions for placed orders. The
// customer finishes payment on the provider's hosted page via the redirect
// URL; settlement lands on the webhook.
type MidtransGateway struct {
	snap      *snap.Client
	serverKey string
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(serverKey, env)

	return &MidtransGateway{snap: &client, serverKey: serverKey}
}

// Initiate implements checkout.PaymentInitiator.
func (g *MidtransGateway) Initiate(ctx context.Context, o *order.Order) (*checkout.PaymentSession, error) {
	items := make([]midtrans.ItemDetails, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    item.ProductID,
			Name:  item.Name,
			Price: int64(item.UnitPrice),
			Qty:   int32(item.Quantity),
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  o.ID,
			GrossAmt: int64(o.Total),
		},
		Items: &items,
	}

	resp, snapErr := g.snap.CreateTransaction(req)
	if snapErr != nil {
		return nil, fmt.Errorf("failed to create snap transaction: %w", snapErr)
	}

	return &checkout.PaymentSession{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// VerifyNotification checks the SHA-512 signature Midtrans attaches to
// webhook notifications.
func (g *MidtransGateway) VerifyNotification(orderID, statusCode, grossAmount, signature string) bool {
	return VerifySignature(orderID, statusCode, grossAmount, signature, g.serverKey)
}

// VerifySignature recomputes the notification signature from its inputs
// and the merchant server key.
func VerifySignature(orderID, statusCode, grossAmount, signature, serverKey string) bool {
	raw := orderID + statusCode + grossAmount + serverKey
	hash := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(hash[:]) == signature
}
