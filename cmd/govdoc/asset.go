package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"govdoc/internal/asset"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage letterhead images",
}

var assetPutCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Store an image and print its key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetPut,
}

var assetRmCmd = &cobra.Command{
	Use:   "rm [key]",
	Short: "Remove a stored image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetRm,
}

func init() {
	assetCmd.AddCommand(assetPutCmd)
	assetCmd.AddCommand(assetRmCmd)
	rootCmd.AddCommand(assetCmd)
}

func runAssetPut(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	img, err := asset.Normalize(filepath.Base(args[0]), data)
	if err != nil {
		return fmt.Errorf("unsupported image: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := store.Blobs().Put(ctx, img.Data, asset.MediaType(img.Type))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runAssetRm(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Blobs().Delete(ctx, args[0])
}
