package server

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/accounts"
)

// Seeded account every fresh backend starts with.
const (
	DefaultAdminEmail     = "admin@test.com"
	DefaultAdminPassword  = "1234"
	DefaultAdminFirstName = "Ludovic"
	DefaultAdminLastName  = "Randu"
)

// InitialiseSystem seeds the default account and prints the configuration in development.
func (s *Server) InitialiseSystem() error {
	err := s.accounts.Seed(accounts.RegisterParams{
		Email:     DefaultAdminEmail,
		FirstName: DefaultAdminFirstName,
		LastName:  DefaultAdminLastName,
		Password:  DefaultAdminPassword,
	})
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to seed admin user: %w", err)
	}

	if s.env == "DEV" {
		minimum, maximum := s.config.GetLatency()
		log.Info().Msg("📋 System Configuration:")
		log.Info().Msgf("   Auth mode:   %s", s.mode)
		log.Info().Msgf("   API prefix:  %s", s.prefix)
		log.Info().Msgf("   Origins:     %s", s.config.GetAllowedOrigins())
		log.Info().Msgf("   Latency:     %s - %s", minimum, maximum)
		log.Info().Msg("👤 Seeded account:")
		log.Info().Msgf("   Email:       %s", DefaultAdminEmail)
		log.Info().Msgf("   Password:    %s", DefaultAdminPassword)
	}
	return nil
}
