package auth

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/trial"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/jwt"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// SignupTxRunner transacción del alta de prueba (empresa, administrador, bodega y settings).
type SignupTxRunner interface {
	RunSignup(ctx context.Context, fn func(
		companyRepo repository.CompanyRepository,
		userRepo repository.UserRepository,
		warehouseRepo repository.WarehouseRepository,
		settingRepo repository.SettingRepository,
	) error) error
}

// AuthUseCase casos de uso de autenticación: login, registro, perfil y alta de prueba.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	tx          SignupTxRunner
	jwtCfg      JWTConfig
	trialDays   int
	log         *logger.Logger
	now         func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	tx SignupTxRunner,
	jwtCfg JWTConfig,
	trialDays int,
	log *logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		tx:          tx,
		jwtCfg:      jwtCfg,
		trialDays:   trialDays,
		log:         log.Component("auth"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser crea un usuario en una empresa existente. Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	exists, err := uc.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrCompanyNotFound
	}
	role := in.Role
	if role == "" {
		role = entity.RoleOperator
	}
	user, err := uc.newUser(in.CompanyID, in.Email, in.Username, in.Name, in.Password, role)
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email o username y password, genera JWT y retorna token + usuario.
// Usuario inexistente y password incorrecto responden igual (ErrUnauthorized).
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByLogin(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	now := uc.now()
	if err := uc.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("no se pudo registrar el último acceso")
	} else {
		user.LastLoginAt = &now
	}
	return uc.issue(user)
}

// Me perfil del usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// SignupTrial crea empresa, bodega principal, administrador y settings de prueba en una transacción
// y devuelve el token del administrador.
func (uc *AuthUseCase) SignupTrial(ctx context.Context, in dto.TrialSignupRequest) (*dto.TrialSignupResponse, error) {
	exists, err := uc.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}
	now := uc.now()
	company := &entity.Company{
		ID:        uuid.NewString(),
		Code:      companyCode(in.CompanyName, now),
		Name:      in.CompanyName,
		Email:     in.Email,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	user, err := uc.newUser(company.ID, in.Email, "", in.Name, in.Password, entity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	warehouse := &entity.Warehouse{
		ID:        uuid.NewString(),
		CompanyID: company.ID,
		Code:      "WH01",
		Name:      "Main Warehouse",
		CreatedAt: now,
		UpdatedAt: now,
	}

	var endsAt time.Time
	err = uc.tx.RunSignup(ctx, func(
		companyRepo repository.CompanyRepository,
		userRepo repository.UserRepository,
		warehouseRepo repository.WarehouseRepository,
		settingRepo repository.SettingRepository,
	) error {
		if err := companyRepo.Create(ctx, company); err != nil {
			return err
		}
		if err := warehouseRepo.Create(ctx, warehouse); err != nil {
			return err
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}
		var err error
		endsAt, err = trial.Start(ctx, settingRepo, company.ID, now, uc.trialDays)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("company_id", company.ID).Time("trial_ends_at", endsAt).Msg("alta de prueba")

	login, err := uc.issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.TrialSignupResponse{LoginResponse: *login, CompanyID: company.ID, TrialEndsAt: endsAt}, nil
}

func (uc *AuthUseCase) newUser(companyID, email, username, name, password, role string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if username == "" {
		username = usernameFromEmail(email)
	}
	if name == "" {
		name = email
	}
	now := uc.now()
	return &entity.User{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: uc.now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
		User:      *toUserResponse(user),
	}, nil
}

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
	nonAlnumUpper = regexp.MustCompile(`[^A-Z0-9]`)
)

// usernameFromEmail parte local del email en minúsculas, solo alfanuméricos.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if u := nonAlnum.ReplaceAllString(local, ""); u != "" {
		return u
	}
	return "user" + uuid.NewString()[:8]
}

// companyCode hasta 10 caracteres del nombre más un sufijo base 36 del instante de alta.
func companyCode(name string, at time.Time) string {
	code := nonAlnumUpper.ReplaceAllString(strings.ToUpper(name), "")
	if len(code) > 10 {
		code = code[:10]
	}
	suffix := strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return code + suffix
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		CompanyID:   u.CompanyID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
