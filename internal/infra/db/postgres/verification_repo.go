package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/security"
)

var _ repository.VerificationRepository = (*verificationRepo)(nil)

// verificationRepo stores one verification record per user. Personal fields
// (name, phone, birthday, gender) are encrypted at rest; DI/CI stay plaintext
// because the duplicate checks look records up by them.
type verificationRepo struct {
	pool *pgxpool.Pool
	enc  *security.EncryptionService
}

func NewVerificationRepo(pool *pgxpool.Pool, enc *security.EncryptionService) *verificationRepo {
	return &verificationRepo{pool: pool, enc: enc}
}

const verificationCols = `user_id, user_name, user_phone, user_birthday, user_gender, is_foreign, di, ci, m_tx_id, verified_at`

func (r *verificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.VerificationResult) error {
	name, err := r.enc.Encrypt(v.UserName)
	if err != nil {
		return fmt.Errorf("encrypt name: %w", err)
	}
	phone, err := r.enc.Encrypt(v.UserPhone)
	if err != nil {
		return fmt.Errorf("encrypt phone: %w", err)
	}
	birth, err := r.enc.Encrypt(v.UserBirthday)
	if err != nil {
		return fmt.Errorf("encrypt birthday: %w", err)
	}
	gender, err := r.enc.Encrypt(v.UserGender)
	if err != nil {
		return fmt.Errorf("encrypt gender: %w", err)
	}

	const q = `
INSERT INTO verifications (` + verificationCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (user_id) DO UPDATE SET
  user_name=$2, user_phone=$3, user_birthday=$4, user_gender=$5, is_foreign=$6, di=$7, ci=$8, m_tx_id=$9, verified_at=$10;`

	_, err = execSQL(ctx, r.pool, tx, q, v.UserID, name, phone, birth, gender, v.IsForeign, v.DI, v.CI, v.MTxID, v.VerifiedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *verificationRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.VerificationResult, error) {
	return r.findOne(ctx, tx, `SELECT `+verificationCols+` FROM verifications WHERE user_id=$1;`, userID)
}

func (r *verificationRepo) FindByDI(ctx context.Context, tx repository.Tx, di string) (*model.VerificationResult, error) {
	return r.findOne(ctx, tx, `SELECT `+verificationCols+` FROM verifications WHERE di=$1 LIMIT 1;`, di)
}

func (r *verificationRepo) FindByCI(ctx context.Context, tx repository.Tx, ci string) (*model.VerificationResult, error) {
	return r.findOne(ctx, tx, `SELECT `+verificationCols+` FROM verifications WHERE ci=$1 LIMIT 1;`, ci)
}

func (r *verificationRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.VerificationResult, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}

	v := &model.VerificationResult{}
	var name, phone, birth, gender string
	if err := row.Scan(&v.UserID, &name, &phone, &birth, &gender, &v.IsForeign, &v.DI, &v.CI, &v.MTxID, &v.VerifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	if v.UserName, err = r.enc.Decrypt(name); err != nil {
		return nil, fmt.Errorf("decrypt name: %w", err)
	}
	if v.UserPhone, err = r.enc.Decrypt(phone); err != nil {
		return nil, fmt.Errorf("decrypt phone: %w", err)
	}
	if v.UserBirthday, err = r.enc.Decrypt(birth); err != nil {
		return nil, fmt.Errorf("decrypt birthday: %w", err)
	}
	if v.UserGender, err = r.enc.Decrypt(gender); err != nil {
		return nil, fmt.Errorf("decrypt gender: %w", err)
	}
	return v, nil
}
