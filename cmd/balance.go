package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/mselser95/polymarket-lag/pkg/wallet"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check your wallet balances",
	Long: `Display your current holdings:
- MATIC balance (for gas)
- USDC balance (for trading)
- USDC allowance (approved to CTF Exchange)`,
	RunE: runBalance,
}

//nolint:gochecknoglobals // Cobra boilerplate
var balanceRPC string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceRPC, "rpc", "r", "https://polygon-rpc.com", "Polygon RPC endpoint")
}

func runBalance(cmd *cobra.Command, args []string) error {
	err := godotenv.Load()
	if err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	address, err := walletAddressFromEnv()
	if err != nil {
		return err
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := wallet.NewClient(balanceRPC, logger)
	if err != nil {
		return fmt.Errorf("connect to Polygon: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balances, err := client.GetBalances(ctx, address)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	matic := new(big.Float).Quo(new(big.Float).SetInt(balances.MATIC), big.NewFloat(1e18))
	usdc := new(big.Float).Quo(new(big.Float).SetInt(balances.USDC), big.NewFloat(1e6))
	allowance := new(big.Float).Quo(new(big.Float).SetInt(balances.USDCAllowance), big.NewFloat(1e6))

	fmt.Printf("=== Wallet Balance Sheet ===\n\n")
	fmt.Printf("Address: %s\n\n", address.Hex())
	fmt.Printf("MATIC Balance: %s MATIC\n", matic.Text('f', 6))
	fmt.Printf("USDC Balance: %s USDC\n", usdc.Text('f', 2))

	if balances.USDCAllowance.Cmp(big.NewInt(0).SetUint64(1e18)) > 0 {
		fmt.Printf("USDC Allowance: Unlimited ✅\n")
	} else {
		fmt.Printf("USDC Allowance: %s USDC\n", allowance.Text('f', 2))
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Ready to trade: ")
	if balances.USDC.Cmp(big.NewInt(1000000)) >= 0 && balances.USDCAllowance.Cmp(big.NewInt(0)) > 0 {
		fmt.Printf("✅ YES\n")
	} else {
		fmt.Printf("❌ NO\n")
		if balances.USDC.Cmp(big.NewInt(1000000)) < 0 {
			fmt.Printf("  - Need more USDC (minimum $1.00)\n")
		}
		if balances.USDCAllowance.Cmp(big.NewInt(0)) == 0 {
			fmt.Printf("  - Need to approve USDC spending to the CTF Exchange\n")
		}
	}

	return nil
}

// walletAddressFromEnv derives the wallet address from POLYMARKET_PRIVATE_KEY.
func walletAddressFromEnv() (common.Address, error) {
	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		return common.Address{}, fmt.Errorf("POLYMARKET_PRIVATE_KEY not set in .env")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("error casting public key to ECDSA")
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}
