package main

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"go-docverify-gateway/document"

	"github.com/golang-jwt/jwt/v4"
	irma "github.com/privacybydesign/irmago"
)

// IssuanceConfig enables the IRMA handoff after a successful identity check.
type IssuanceConfig struct {
	JwtPrivateKeyPath string `json:"jwt_private_key_path" yaml:"jwt_private_key_path"`
	IrmaServerUrl     string `json:"irma_server_url" yaml:"irma_server_url"`
	IssuerId          string `json:"issuer_id" yaml:"issuer_id"`
	Credential        string `json:"credential" yaml:"credential"`
	SdJwtBatchSize    uint   `json:"sd_jwt_batch_size" yaml:"sd_jwt_batch_size"`
	ValidityMonths    int    `json:"validity_months" yaml:"validity_months"`
}

// VerifiedIdentity is what gets issued once the live portrait matched the
// document portrait.
type VerifiedIdentity struct {
	FirstName         string
	LastName          string
	DocumentNumber    string
	DateOfBirth       string
	Gender            string
	FaceMatched       bool
	SimilarityPercent float64
	VerifiedAt        time.Time
}

type JwtCreator interface {
	CreateIdentityJwt(identity VerifiedIdentity) (jwt string, err error)
}

// NewIrmaJwtCreator loads the RSA key used to sign IRMA issuance requests.
func NewIrmaJwtCreator(config IssuanceConfig) (*IrmaJwtCreator, error) {
	pem, err := os.ReadFile(config.JwtPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read jwt private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt private key: %w", err)
	}

	validity := config.ValidityMonths
	if validity <= 0 {
		validity = 12
	}
	return &IrmaJwtCreator{
		key:            key,
		issuer:         config.IssuerId,
		credential:     irma.NewCredentialTypeIdentifier(config.Credential),
		batchSize:      config.SdJwtBatchSize,
		validityMonths: validity,
		now:            time.Now,
	}, nil
}

type IrmaJwtCreator struct {
	key            *rsa.PrivateKey
	issuer         string
	credential     irma.CredentialTypeIdentifier
	batchSize      uint
	validityMonths int
	now            func() time.Time
}

func (c *IrmaJwtCreator) CreateIdentityJwt(identity VerifiedIdentity) (string, error) {
	expires := irma.Timestamp(c.now().AddDate(0, c.validityMonths, 0).Truncate(time.Second))
	request := irma.NewIssuanceRequest([]*irma.CredentialRequest{{
		CredentialTypeID: c.credential,
		Attributes:       identityAttributes(identity),
		SdJwtBatchSize:   c.batchSize,
		Validity:         &expires,
	}})

	return irma.SignSessionRequest(request, jwt.SigningMethodRS256, c.key, c.issuer)
}

func identityAttributes(identity VerifiedIdentity) map[string]string {
	return map[string]string{
		"firstName":         identity.FirstName,
		"lastName":          identity.LastName,
		"documentNumber":    identity.DocumentNumber,
		"dateOfBirth":       identity.DateOfBirth,
		"gender":            identity.Gender,
		"faceMatched":       document.BoolToYesNo(identity.FaceMatched),
		"similarityPercent": fmt.Sprintf("%.2f", identity.SimilarityPercent),
		"verifiedAt":        identity.VerifiedAt.UTC().Format(document.DateLayout),
	}
}
