package controllers

import (
	"context"
	"ems/src/db"
	"ems/src/lib"
	"ems/src/models"
	"ems/src/types"
	"ems/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthLogin exchanges a verified Firebase identity for an API token.
// VerifyIdToken has already authenticated the caller against Firebase.
func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		log.Printf("Error initializing FirebaseAuth client: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}
	user, err := auth.GetUserByEmail(context.Background(), body.Email)
	if err != nil {
		log.Printf("error from Firebase: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}

	db := db.GetDb()
	var muser models.User
	if err = db.
		Model(&models.User{}).
		Select("id", "name", "email", "role").
		Where(&models.User{Email: user.Email}).
		First(&muser).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}

	uid := ctx.GetString("uid")
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", muser.ID).
			Update("last_active", time.Now()).
			Error
	})
	if err != nil {
		log.Printf("Error logging in user [%d]: %s\n", muser.ID, err.Error())
		return nil, http.StatusBadRequest, err
	}

	jwt, err := utils.GenerateJWT(user.Email, muser.ID, muser.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	rd := lib.GetRedisClient()
	if _, err := rd.JSONSet(ctx, fmt.Sprintf("%d:user", muser.ID), "$", &muser).Result(); err != nil {
		log.Printf("[redis] Error updating user cache: %s\n", err.Error())
	}
	val := rd.JSONGet(context.Background(), fmt.Sprintf("%s:fcm", uid), "$.token").Val()
	if val != "" {
		if fcm, err := lib.GetFirebaseMessaging(); err == nil {
			fcm.SubscribeToTopic(ctx, []string{val}, "Notifications")
		}
	}

	return &jwt, http.StatusOK, nil
}

// AuthRegister provisions a local user for a Firebase identity. The
// requested role is honored except manager, which is assigned out of
// band.
func AuthRegister(ctx *gin.Context) (uid *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err := auth.GetUserByEmail(context.Background(), body.Email)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	role := body.Role
	if role == "" || role == types.ROLE_MANAGER {
		role = types.ROLE_SHOPPER
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var muser models.User
		if err := tx.
			Model(&models.User{}).
			Select("id").
			Where("email = ?", body.Email).
			First(&muser).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("could not complete transaction")
			}
		}
		if muser.ID > 0 {
			err := errors.New("user is already registered in the system. Please proceed to Log In")
			log.Printf("error: %s\n", err.Error())
			return err
		}

		newUser := models.User{
			Email: user.Email,
			UID:   user.UID,
			Role:  role,
			Name:  user.DisplayName,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return fmt.Errorf("error creating user: %s", user.Email)
		}
		return nil
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &user.UID, http.StatusCreated, nil
}
