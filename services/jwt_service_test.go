package services

import (
	"testing"

	"interfone-http-service/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(&config.Config{JWTSecretKey: "test-secret"})
}

func TestJWTRoundTrip(t *testing.T) {
	svc := newTestJWTService()

	buildingID := uint(3)
	token, err := svc.GenerateToken(42, "doorman", &buildingID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ExtractClaims(token)
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "doorman" {
		t.Errorf("Role = %q, want doorman", claims.Role)
	}
	if claims.BuildingID == nil || *claims.BuildingID != 3 {
		t.Errorf("BuildingID = %v, want 3", claims.BuildingID)
	}
	if claims.Issuer != "interfone-http-service" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

// 住户令牌不携带楼栋ID
func TestJWTResidentWithoutBuilding(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(7, "resident", nil)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ExtractClaims(token)
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if claims.BuildingID != nil {
		t.Errorf("BuildingID = %v, want nil", claims.BuildingID)
	}
}

func TestJWTWrongSecretRejected(t *testing.T) {
	token, err := newTestJWTService().GenerateToken(1, "admin", nil)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewJWTService(&config.Config{JWTSecretKey: "another-secret"})
	if _, err := other.ExtractClaims(token); err == nil {
		t.Error("expected validation error for token signed with different secret")
	}
}

func TestJWTGarbageToken(t *testing.T) {
	if _, err := newTestJWTService().ExtractClaims("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
