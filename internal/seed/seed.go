// internal/seed/seed.go
package seed

import (
	"context"
	"log"

	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// SeedData creates a small demo data set for local development. It is
// skipped when a demo user already exists, so restarts stay clean.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	if existing, _ := repos.UserRepo.FindByEmail(ctx, "amara.osei@classlink.dev"); existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] Creating demo users and channels...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	amara := &repository.User{
		Email:    "amara.osei@classlink.dev",
		Password: string(password),
		Name:     "Amara Osei",
	}
	repos.UserRepo.Create(ctx, amara)

	diego := &repository.User{
		Email:    "diego.ramos@classlink.dev",
		Password: string(password),
		Name:     "Diego Ramos",
	}
	repos.UserRepo.Create(ctx, diego)

	priya := &repository.User{
		Email:    "priya.nair@classlink.dev",
		Password: string(password),
		Name:     "Priya Nair",
	}
	repos.UserRepo.Create(ctx, priya)

	// Amara runs an open channel that welcomes merges.
	physics := &repository.Channel{
		Name:        "Physics 101",
		JoinCode:    "PHYS2026",
		AdminUserID: amara.ID,
		AllowMerge:  true,
		PrivacyMode: types.PrivacyPublic,
	}
	repos.ChannelRepo.Create(ctx, physics)

	// Diego's channel is also mergeable but keeps its roster anonymous.
	chemistry := &repository.Channel{
		Name:        "Chemistry 201",
		JoinCode:    "CHEM2026",
		AdminUserID: diego.ID,
		AllowMerge:  true,
		PrivacyMode: types.PrivacyAnonymous,
	}
	repos.ChannelRepo.Create(ctx, chemistry)

	// Priya's channel opts out of discovery entirely.
	biology := &repository.Channel{
		Name:        "Biology Lab",
		JoinCode:    "BIOL2026",
		AdminUserID: priya.ID,
		AllowMerge:  false,
		PrivacyMode: types.PrivacyPublic,
	}
	repos.ChannelRepo.Create(ctx, biology)

	if physics.ID != "" {
		repos.ChannelRepo.AddMember(ctx, physics.ID, priya.ID)
	}
	if chemistry.ID != "" {
		repos.ChannelRepo.AddMember(ctx, chemistry.ID, amara.ID)
	}

	log.Println("[Seed] Created 3 users and 3 channels (password: password123)")
}
