package gateway

import (
	"fmt"
	"strings"

	"galangdana_backend/internals/configs"
)

// New memilih adapter berdasarkan gateway_provider.
func New(cfg configs.GatewayConfig) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderMock:
		return NewMock(cfg.CallbackSecret), nil
	case ProviderMidtrans:
		if cfg.MidtransServerKey == "" {
			return nil, fmt.Errorf("midtrans_server_key wajib diisi untuk provider midtrans")
		}
		return NewMidtrans(MidtransConfig{
			ServerKey:     cfg.MidtransServerKey,
			IrisKey:       cfg.IrisCreatorKey,
			MerchantKey:   cfg.IrisMerchantKey,
			UseProduction: cfg.MidtransUseProd,
		}), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}
