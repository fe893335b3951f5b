package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

const avatarSize = 256

// AvatarService renders an initials avatar at register time. The PNG is kept
// on the user row; this deployment has no object store.
type AvatarService interface {
	GenerateUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	bgColors []color.NRGBA
	fontFace font.Face
}

func NewAvatarService(baseLog *logger.Logger) (AvatarService, error) {
	serviceLog := baseLog.With("service", "AvatarService")

	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse avatar font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: avatarSize * 0.42})

	return &avatarService{
		log: serviceLog,
		bgColors: []color.NRGBA{
			{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
			{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
			{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
			{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
			{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
			{R: 0x06, G: 0xb6, B: 0xd4, A: 0xff},
		},
		fontFace: face,
	}, nil
}

func (av *avatarService) GenerateUserAvatar(ctx context.Context, user *types.User) error {
	if user == nil {
		return fmt.Errorf("No user given")
	}

	initials := avatarInitials(user.FirstName, user.LastName)
	bg := av.bgColors[avatarColorIndex(user.Email, len(av.bgColors))]

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	dc.SetFontFace(av.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("Failed to encode avatar png: %w", err)
	}
	user.AvatarPNG = buf.Bytes()
	return nil
}

func avatarInitials(first, last string) string {
	var b strings.Builder
	if first = strings.TrimSpace(first); first != "" {
		b.WriteString(strings.ToUpper(first[:1]))
	}
	if last = strings.TrimSpace(last); last != "" {
		b.WriteString(strings.ToUpper(last[:1]))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func avatarColorIndex(seed string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}
